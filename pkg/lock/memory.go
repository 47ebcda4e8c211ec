package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryLocker is a process-local Locker for tests and single-node deployments.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryLocker builds an empty in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{entries: make(map[string]memoryEntry), now: time.Now}
}

// Acquire claims name for ttl or returns ErrNotAcquired.
func (l *MemoryLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("lock %s: ttl must be positive", name)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if entry, held := l.entries[name]; held && now.Before(entry.expiresAt) {
		return nil, ErrNotAcquired
	}
	token := uuid.NewString()
	l.entries[name] = memoryEntry{token: token, expiresAt: now.Add(ttl)}
	return newLease(name, token, l.release), nil
}

func (l *MemoryLocker) release(_ context.Context, name, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, held := l.entries[name]
	if !held || entry.token != token {
		return ErrLeaseLost
	}
	delete(l.entries, name)
	if !l.now().Before(entry.expiresAt) {
		return ErrLeaseLost
	}
	return nil
}
