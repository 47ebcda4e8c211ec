package models

import (
	"time"

	"github.com/noah-isme/room-booking-api/pkg/slotid"
)

// SlotState is the lifecycle or display state of a slot.
type SlotState string

const (
	SlotStateIdle     SlotState = "IDLE"
	SlotStateOccupied SlotState = "OCCUPIED"
	// SlotStateFollowed is reserved for watching a slot; nothing produces it yet.
	SlotStateFollowed SlotState = "FOLLOWED"
	// SlotStateMine is OCCUPIED as seen by its owner. Never stored.
	SlotStateMine         SlotState = "MINE"
	SlotStatePassed       SlotState = "PASSED"
	SlotStateNotOpen      SlotState = "NOT_OPEN"
	SlotStateDisabledRed  SlotState = "DISABLED_RED"
	SlotStateDisabledWarm SlotState = "DISABLED_WARM"
	SlotStateDisabledCool SlotState = "DISABLED_COOL"
)

// Disabled reports whether the state is one of the administrator-disabled variants.
func (s SlotState) Disabled() bool {
	switch s {
	case SlotStateDisabledRed, SlotStateDisabledWarm, SlotStateDisabledCool:
		return true
	}
	return false
}

// Persistable reports whether a slot in this state may be written to storage.
func (s SlotState) Persistable() bool {
	return s == SlotStateOccupied || s.Disabled()
}

// Slot is one hour of one room. Only occupied or disabled slots are stored.
type Slot struct {
	ID        slotid.Key `db:"id" json:"id"`
	RoomID    int        `db:"room_id" json:"room_id"`
	UserID    *string    `db:"user_id" json:"user_id,omitempty"`
	ShowText  string     `db:"show_text" json:"show_text"`
	CheckedIn bool       `db:"checked_in" json:"checked_in"`
	State     SlotState  `db:"state" json:"state"`
	StartTime time.Time  `db:"start_time" json:"start_time"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// OwnedBy reports whether userID owns the slot.
func (s *Slot) OwnedBy(userID string) bool {
	return s.UserID != nil && userID != "" && *s.UserID == userID
}

// SlotOrigin tells a stored slot apart from a placeholder built on demand.
type SlotOrigin int

const (
	SlotOriginStored SlotOrigin = iota + 1
	SlotOriginSynthesized
)

// ResolvedSlot is a slot together with where it came from.
type ResolvedSlot struct {
	Slot   Slot
	Origin SlotOrigin
}

// Stored wraps a slot read from storage.
func Stored(slot Slot) ResolvedSlot {
	return ResolvedSlot{Slot: slot, Origin: SlotOriginStored}
}

// Synthesized wraps a placeholder that has no stored row.
func Synthesized(slot Slot) ResolvedSlot {
	return ResolvedSlot{Slot: slot, Origin: SlotOriginSynthesized}
}

// IsStored reports whether the slot exists in storage.
func (r ResolvedSlot) IsStored() bool {
	return r.Origin == SlotOriginStored
}
