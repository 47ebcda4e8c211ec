package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/room-booking-api/internal/models"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
	"github.com/noah-isme/room-booking-api/pkg/slotid"
)

func newTimetableFixture(t *testing.T, cache weekSlotCache) (*TimetableService, *fakeSlotStore, *slotid.Codec) {
	t.Helper()
	codec := slotid.New(time.UTC)
	rooms := newFakeRoomDirectory(models.Room{ID: 7, Name: "Studio", StartHour: 8, EndHour: 20, WeekLimit: 4, DayLimit: 2, Active: true})
	store := newFakeSlotStore()
	svc := NewTimetableService(rooms, store, cache, codec, zap.NewNop(), TimetableConfig{
		WeekAnchor: time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC),
		CacheTTL:   time.Minute,
	})
	svc.now = func() time.Time { return bookingNow }
	return svc, store, codec
}

func storeSlot(store *fakeSlotStore, codec *slotid.Codec, at time.Time, owner *string, state models.SlotState, text string) slotid.Key {
	key := codec.Encode(7, at)
	store.slots[key] = models.Slot{ID: key, RoomID: 7, UserID: owner, ShowText: text, State: state, StartTime: at}
	return key
}

func TestTimetableGridShape(t *testing.T) {
	svc, _, codec := newTimetableFixture(t, nil)

	grid, err := svc.Build(context.Background(), 7, 0, alice)
	require.NoError(t, err)
	require.Len(t, grid.Rows, 12)
	require.Len(t, grid.Titles, 12)
	assert.Equal(t, "08:00 09:00", grid.Titles[0])
	assert.Equal(t, "19:00 20:00", grid.Titles[11])
	assert.Equal(t, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), grid.WeekStart)
	assert.Equal(t, 6, grid.Week)
	assert.Equal(t, "Studio", grid.RoomName)

	for r, row := range grid.Rows {
		require.Len(t, row, 7)
		for d, cell := range row {
			want := time.Date(2026, time.October, 19+d, 8+r, 0, 0, 0, time.UTC)
			assert.Equal(t, codec.Encode(7, want), cell.Key)
			assert.True(t, cell.StartTime.Equal(want))
			assert.Equal(t, 7, cell.Key.Room())
		}
	}
}

func TestTimetablePlaceholderStates(t *testing.T) {
	svc, _, _ := newTimetableFixture(t, nil)

	grid, err := svc.Build(context.Background(), 7, 0, alice)
	require.NoError(t, err)
	// Wednesday column: 10:00 started before now, 11:00 is still ahead.
	assert.Equal(t, models.SlotStatePassed, grid.Rows[0][0].State)
	assert.Equal(t, models.SlotStatePassed, grid.Rows[2][2].State)
	assert.Equal(t, models.SlotStateIdle, grid.Rows[3][2].State)
	assert.Equal(t, models.SlotStateIdle, grid.Rows[0][6].State)
	assert.Empty(t, grid.Rows[3][2].ShowText)
	assert.False(t, grid.Rows[3][2].Stored)

	next, err := svc.Build(context.Background(), 7, 1, alice)
	require.NoError(t, err)
	for _, row := range next.Rows {
		for _, cell := range row {
			assert.Equal(t, models.SlotStateNotOpen, cell.State)
		}
	}

	prev, err := svc.Build(context.Background(), 7, -1, alice)
	require.NoError(t, err)
	assert.Equal(t, 5, prev.Week)
	for _, row := range prev.Rows {
		for _, cell := range row {
			assert.Equal(t, models.SlotStatePassed, cell.State)
		}
	}
}

func TestTimetableOpenHorizon(t *testing.T) {
	svc, _, _ := newTimetableFixture(t, nil)
	svc.cfg.OpenWeeks = 1

	next, err := svc.Build(context.Background(), 7, 1, alice)
	require.NoError(t, err)
	assert.Equal(t, models.SlotStateIdle, next.Rows[0][0].State)

	later, err := svc.Build(context.Background(), 7, 2, alice)
	require.NoError(t, err)
	assert.Equal(t, models.SlotStateNotOpen, later.Rows[0][0].State)
}

func TestTimetableStoredSlotsAndMine(t *testing.T) {
	svc, store, _ := newTimetableFixture(t, nil)
	thursdayNine := time.Date(2026, time.October, 22, 9, 0, 0, 0, time.UTC)
	storeSlot(store, svc.codec, thursdayNine, strPtr("alice"), models.SlotStateOccupied, "Alice")
	storeSlot(store, svc.codec, thursdayNine.Add(time.Hour), strPtr("bob"), models.SlotStateOccupied, "Bob")
	storeSlot(store, svc.codec, thursdayNine.Add(2*time.Hour), nil, models.SlotStateDisabledCool, "Exam")

	grid, err := svc.Build(context.Background(), 7, 0, alice)
	require.NoError(t, err)
	assert.Equal(t, models.SlotStateMine, grid.Rows[1][3].State)
	assert.Equal(t, "Alice", grid.Rows[1][3].ShowText)
	assert.True(t, grid.Rows[1][3].Stored)
	assert.Equal(t, models.SlotStateOccupied, grid.Rows[2][3].State)
	assert.Equal(t, "Bob", grid.Rows[2][3].ShowText)
	assert.Equal(t, models.SlotStateDisabledCool, grid.Rows[3][3].State)

	asBob, err := svc.Build(context.Background(), 7, 0, bob)
	require.NoError(t, err)
	assert.Equal(t, models.SlotStateOccupied, asBob.Rows[1][3].State)
	assert.Equal(t, models.SlotStateMine, asBob.Rows[2][3].State)

	stored, _ := store.get(svc.codec.Encode(7, thursdayNine))
	assert.Equal(t, models.SlotStateOccupied, stored.State, "grid rendering never rewrites storage")
}

func TestTimetableUnknownRoom(t *testing.T) {
	svc, _, _ := newTimetableFixture(t, nil)
	_, err := svc.Build(context.Background(), 99, 0, alice)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTimetableCachesWeekUntilInvalidated(t *testing.T) {
	cache := newFakeWeekCache()
	svc, store, _ := newTimetableFixture(t, cache)

	_, err := svc.Build(context.Background(), 7, 0, alice)
	require.NoError(t, err)
	_, err = svc.Build(context.Background(), 7, 0, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, store.lists)
	assert.Equal(t, 1, cache.hits)

	key := storeSlot(store, svc.codec, time.Date(2026, time.October, 23, 9, 0, 0, 0, time.UTC), strPtr("alice"), models.SlotStateOccupied, "Alice")
	svc.InvalidateWeek(context.Background(), key)

	grid, err := svc.Build(context.Background(), 7, 0, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, store.lists)
	assert.Equal(t, models.SlotStateMine, grid.Rows[1][4].State)
}

func TestTimetableCacheDropsReadRacingCommit(t *testing.T) {
	cache := newFakeWeekCache()
	f := newBookingFixture(t, 0)
	timetable := NewTimetableService(f.rooms, f.store, cache, f.codec, zap.NewNop(), TimetableConfig{
		WeekAnchor: time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC),
		CacheTTL:   time.Minute,
	})
	timetable.now = func() time.Time { return bookingNow }
	bookings := NewBookingService(f.rooms, f.store, f.locker, f.codec, timetable, f.audit, nil, nil, zap.NewNop(), BookingConfig{LockTTL: time.Second})
	bookings.now = func() time.Time { return bookingNow }

	entered := make(chan struct{})
	release := make(chan struct{})
	var paused int32
	f.store.afterList = func() {
		if atomic.CompareAndSwapInt32(&paused, 0, 1) {
			entered <- struct{}{}
			<-release
		}
	}

	done := make(chan error, 1)
	go func() {
		_, err := timetable.Build(context.Background(), 7, 0, alice)
		done <- err
	}()
	<-entered

	_, err := bookings.Occupy(context.Background(), f.key(7, 22, 9), alice)
	require.NoError(t, err)
	close(release)
	require.NoError(t, <-done)

	grid, err := timetable.Build(context.Background(), 7, 0, alice)
	require.NoError(t, err)
	assert.Equal(t, models.SlotStateMine, grid.Rows[1][3].State)

	grid, err = timetable.Build(context.Background(), 7, 0, alice)
	require.NoError(t, err)
	assert.Equal(t, models.SlotStateMine, grid.Rows[1][3].State)
	assert.Equal(t, 1, cache.hits)
}

func TestTimetableLogsCacheWriteFailure(t *testing.T) {
	cache := newFakeWeekCache()
	cache.setErr = errors.New("redis down")
	svc, _, _ := newTimetableFixture(t, cache)
	core, logs := observer.New(zap.WarnLevel)
	svc.logger = zap.New(core)

	grid, err := svc.Build(context.Background(), 7, 0, alice)
	require.NoError(t, err)
	assert.NotEmpty(t, grid.Rows)
	assert.Zero(t, cache.size())

	entries := logs.FilterMessage("failed to cache timetable week").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(7), entries[0].ContextMap()["room_id"])
}

func TestWeekNumber(t *testing.T) {
	anchor := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, weekNumber(anchor, anchor))
	assert.Equal(t, 1, weekNumber(anchor, anchor.AddDate(0, 0, 7)))
	assert.Equal(t, -1, weekNumber(anchor, anchor.AddDate(0, 0, -7)))
	assert.Equal(t, -1, weekNumber(anchor, anchor.AddDate(0, 0, -3)))
	assert.Equal(t, 0, weekNumber(anchor, anchor.AddDate(0, 0, 6)))
}
