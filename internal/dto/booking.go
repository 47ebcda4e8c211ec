package dto

import "github.com/noah-isme/room-booking-api/internal/models"

// Disable variants accepted by DisableSlotRequest.
const (
	DisableVariantRed  = "RED"
	DisableVariantWarm = "WARM"
	DisableVariantCool = "COOL"
)

// DisableSlotRequest blocks a slot from being reserved.
type DisableSlotRequest struct {
	Variant string `json:"variant" validate:"required,oneof=RED WARM COOL"`
	Reason  string `json:"reason" validate:"max=64"`
}

// State maps the variant to its stored slot state.
func (r DisableSlotRequest) State() models.SlotState {
	switch r.Variant {
	case DisableVariantWarm:
		return models.SlotStateDisabledWarm
	case DisableVariantCool:
		return models.SlotStateDisabledCool
	default:
		return models.SlotStateDisabledRed
	}
}

// RoomResponse describes a room the viewer may book.
type RoomResponse struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Public    bool   `json:"public"`
	StartHour int    `json:"startHour"`
	EndHour   int    `json:"endHour"`
	WeekLimit int    `json:"weekLimit"`
	DayLimit  int    `json:"dayLimit"`
}

// NewRoomResponse projects a room for listing.
func NewRoomResponse(room models.Room) RoomResponse {
	return RoomResponse{
		ID:        room.ID,
		Name:      room.Name,
		Public:    room.Public(),
		StartHour: room.StartHour,
		EndHour:   room.EndHour,
		WeekLimit: room.WeekLimit,
		DayLimit:  room.DayLimit,
	}
}
