// Package lock provides named, TTL-bounded, non-blocking mutual exclusion.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotAcquired is returned when the name is already held.
	ErrNotAcquired = errors.New("lock already held")
	// ErrLeaseLost is returned by Release when the lease expired before release.
	ErrLeaseLost = errors.New("lock lease lost")
)

// Locker acquires named locks without waiting.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error)
}

type releaseFunc func(ctx context.Context, name, token string) error

// Lease is a held lock. Release is safe to call more than once.
type Lease struct {
	name    string
	token   string
	release releaseFunc
	once    sync.Once
	err     error
}

func newLease(name, token string, release releaseFunc) *Lease {
	return &Lease{name: name, token: token, release: release}
}

// Name returns the lock name.
func (l *Lease) Name() string {
	return l.name
}

// Release frees the lock if this lease still owns it.
func (l *Lease) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}
	l.once.Do(func() {
		l.err = l.release(ctx, l.name, l.token)
	})
	return l.err
}
