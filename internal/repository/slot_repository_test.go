package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/room-booking-api/internal/models"
	"github.com/noah-isme/room-booking-api/pkg/slotid"
)

var slotRowColumns = []string{"id", "room_id", "user_id", "show_text", "checked_in", "state", "start_time", "created_at", "updated_at"}

func TestSlotRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	codec := slotid.New(time.UTC)
	start := time.Date(2026, time.October, 20, 9, 0, 0, 0, time.UTC)
	key := codec.Encode(12, start)

	rows := sqlmock.NewRows(slotRowColumns).
		AddRow(key.Int64(), 12, "user-1", "Alice", true, string(models.SlotStateOccupied), start, start, start)
	mock.ExpectQuery(regexp.QuoteMeta("FROM time_slots WHERE id = $1")).
		WithArgs(key.Int64()).
		WillReturnRows(rows)

	slot, err := repo.FindByID(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, key, slot.ID)
	assert.Equal(t, 12, slot.RoomID)
	require.NotNil(t, slot.UserID)
	assert.Equal(t, "user-1", *slot.UserID)
	assert.True(t, slot.CheckedIn)
	assert.Equal(t, models.SlotStateOccupied, slot.State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM time_slots WHERE id = $1")).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), slotid.Key(42))
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryListByRoomRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	codec := slotid.New(time.UTC)
	weekStart := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	from, to := codec.WeekRange(3, weekStart)
	tuesday := weekStart.Add(33 * time.Hour)

	rows := sqlmock.NewRows(slotRowColumns).
		AddRow(codec.Encode(3, tuesday).Int64(), 3, nil, "maintenance", false, string(models.SlotStateDisabledRed), tuesday, tuesday, tuesday)
	mock.ExpectQuery(regexp.QuoteMeta("FROM time_slots WHERE room_id = $1 AND id >= $2 AND id < $3 ORDER BY id ASC")).
		WithArgs(3, from.Int64(), to.Int64()).
		WillReturnRows(rows)

	slots, err := repo.ListByRoomRange(context.Background(), 3, from, to)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Nil(t, slots[0].UserID)
	assert.Equal(t, models.SlotStateDisabledRed, slots[0].State)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	owner := "user-9"
	start := time.Date(2026, time.October, 22, 14, 0, 0, 0, time.UTC)
	slot := &models.Slot{
		ID:        slotid.New(time.UTC).Encode(5, start),
		RoomID:    5,
		UserID:    &owner,
		ShowText:  "Bob",
		State:     models.SlotStateOccupied,
		StartTime: start,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO time_slots")).
		WithArgs(slot.ID.Int64(), 5, owner, "Bob", false, string(models.SlotStateOccupied), start, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), slot))
	assert.False(t, slot.CreatedAt.IsZero())
	assert.False(t, slot.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryUpsertRejectsVirtualStates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	for _, state := range []models.SlotState{models.SlotStateIdle, models.SlotStateMine, models.SlotStatePassed, models.SlotStateNotOpen, models.SlotStateFollowed} {
		err := repo.Upsert(context.Background(), &models.Slot{ID: 10001, RoomID: 1, State: state})
		assert.ErrorIs(t, err, ErrSlotNotPersistable, "state %s", state)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM time_slots WHERE id = $1")).
		WithArgs(int64(10001)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), slotid.Key(10001)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
