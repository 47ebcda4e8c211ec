package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/noah-isme/room-booking-api/internal/models"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
	"github.com/noah-isme/room-booking-api/pkg/slotid"
)

type fakeRoomDirectory struct {
	rooms   map[int]*models.Room
	members map[string]bool
}

func newFakeRoomDirectory(rooms ...models.Room) *fakeRoomDirectory {
	dir := &fakeRoomDirectory{rooms: map[int]*models.Room{}, members: map[string]bool{}}
	for i := range rooms {
		room := rooms[i]
		dir.rooms[room.ID] = &room
	}
	return dir
}

func (f *fakeRoomDirectory) Get(ctx context.Context, id int) (*models.Room, error) {
	room, ok := f.rooms[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
	}
	return room, nil
}

func (f *fakeRoomDirectory) AvailableTo(ctx context.Context, room *models.Room, actor models.Actor) (bool, error) {
	if room.Public() {
		return true, nil
	}
	return f.members[*room.ClubID+"|"+actor.UserID], nil
}

type fakeSlotStore struct {
	mu      sync.Mutex
	slots   map[slotid.Key]models.Slot
	upserts int
	deletes int
	lists   int

	// entered and release, when set, pause Upsert until release is closed.
	entered chan struct{}
	release chan struct{}
	// afterList, when set, runs once a list result is taken and before it is returned.
	afterList func()
}

func newFakeSlotStore(slots ...models.Slot) *fakeSlotStore {
	store := &fakeSlotStore{slots: map[slotid.Key]models.Slot{}}
	for _, slot := range slots {
		store.slots[slot.ID] = slot
	}
	return store
}

func (f *fakeSlotStore) FindByID(ctx context.Context, key slotid.Key) (*models.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &slot, nil
}

func (f *fakeSlotStore) ListByRoomRange(ctx context.Context, roomID int, from, to slotid.Key) ([]models.Slot, error) {
	f.mu.Lock()
	f.lists++
	var out []models.Slot
	for key, slot := range f.slots {
		if slot.RoomID == roomID && key >= from && key < to {
			out = append(out, slot)
		}
	}
	f.mu.Unlock()
	if f.afterList != nil {
		f.afterList()
	}
	return out, nil
}

func (f *fakeSlotStore) Upsert(ctx context.Context, slot *models.Slot) error {
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	f.slots[slot.ID] = *slot
	return nil
}

func (f *fakeSlotStore) Delete(ctx context.Context, key slotid.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.slots, key)
	return nil
}

func (f *fakeSlotStore) get(key slotid.Key) (models.Slot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[key]
	return slot, ok
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (r *recordingAudit) Record(ctx context.Context, entry *models.AuditLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

type recordingWeeks struct {
	mu   sync.Mutex
	keys []slotid.Key
}

func (r *recordingWeeks) InvalidateWeek(ctx context.Context, key slotid.Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
}

type fakeWeekCache struct {
	mu          sync.Mutex
	entries     map[string][]models.Slot
	generations map[string]int64
	setErr      error
	gets        int
	hits        int
}

func newFakeWeekCache() *fakeWeekCache {
	return &fakeWeekCache{entries: map[string][]models.Slot{}, generations: map[string]int64{}}
}

func (f *fakeWeekCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	slots, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	f.hits++
	*(dest.(*[]models.Slot)) = append([]models.Slot(nil), slots...)
	return true, nil
}

func (f *fakeWeekCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = append([]models.Slot(nil), value.([]models.Slot)...)
	return nil
}

func (f *fakeWeekCache) Invalidate(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.entries, key)
	}
	return nil
}

func (f *fakeWeekCache) Generation(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generations[key], nil
}

func (f *fakeWeekCache) Bump(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generations[key]++
	return f.generations[key], nil
}

func (f *fakeWeekCache) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func strPtr(s string) *string {
	return &s
}
