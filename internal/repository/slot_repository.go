package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/room-booking-api/internal/models"
	"github.com/noah-isme/room-booking-api/pkg/slotid"
)

// ErrSlotNotPersistable is returned when asked to store a slot that is neither occupied nor disabled.
var ErrSlotNotPersistable = errors.New("slot state is not persistable")

const slotColumns = `id, room_id, user_id, show_text, checked_in, state, start_time, created_at, updated_at`

// SlotRepository stores occupied and disabled time slots.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository constructs a slot repository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// FindByID returns the stored slot with the given key.
func (r *SlotRepository) FindByID(ctx context.Context, key slotid.Key) (*models.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE id = $1`
	var slot models.Slot
	if err := r.db.GetContext(ctx, &slot, query, key.Int64()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find time slot %s: %w", key, err)
	}
	return &slot, nil
}

// ListByRoomRange returns the room's stored slots with keys in [from, to), ordered by key.
func (r *SlotRepository) ListByRoomRange(ctx context.Context, roomID int, from, to slotid.Key) ([]models.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE room_id = $1 AND id >= $2 AND id < $3 ORDER BY id ASC`
	var slots []models.Slot
	if err := r.db.SelectContext(ctx, &slots, query, roomID, from.Int64(), to.Int64()); err != nil {
		return nil, fmt.Errorf("list time slots for room %d: %w", roomID, err)
	}
	return slots, nil
}

// Upsert inserts the slot or replaces the stored row with the same key.
func (r *SlotRepository) Upsert(ctx context.Context, slot *models.Slot) error {
	if !slot.State.Persistable() {
		return fmt.Errorf("upsert time slot %s: %w: %s", slot.ID, ErrSlotNotPersistable, slot.State)
	}

	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now

	const query = `
INSERT INTO time_slots (id, room_id, user_id, show_text, checked_in, state, start_time, created_at, updated_at)
VALUES (:id, :room_id, :user_id, :show_text, :checked_in, :state, :start_time, :created_at, :updated_at)
ON CONFLICT (id) DO UPDATE
SET user_id = EXCLUDED.user_id,
    show_text = EXCLUDED.show_text,
    checked_in = EXCLUDED.checked_in,
    state = EXCLUDED.state,
    updated_at = EXCLUDED.updated_at`

	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("upsert time slot %s: %w", slot.ID, err)
	}
	return nil
}

// Delete removes the stored slot. Deleting an absent key is not an error.
func (r *SlotRepository) Delete(ctx context.Context, key slotid.Key) error {
	const query = `DELETE FROM time_slots WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, key.Int64()); err != nil {
		return fmt.Errorf("delete time slot %s: %w", key, err)
	}
	return nil
}
