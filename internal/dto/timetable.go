package dto

import (
	"time"

	"github.com/noah-isme/room-booking-api/internal/models"
	"github.com/noah-isme/room-booking-api/pkg/slotid"
)

// SlotView is one cell of a weekly timetable as seen by the viewer.
type SlotView struct {
	Key       slotid.Key       `json:"key"`
	StartTime time.Time        `json:"startTime"`
	State     models.SlotState `json:"state"`
	ShowText  string           `json:"showText"`
	CheckedIn bool             `json:"checkedIn"`
	Stored    bool             `json:"stored"`
}

// TimetableResponse is a room's week as hour rows by weekday columns, Monday first.
type TimetableResponse struct {
	RoomID    int          `json:"roomId"`
	RoomName  string       `json:"roomName"`
	Offset    int          `json:"offset"`
	Week      int          `json:"week"`
	WeekStart time.Time    `json:"weekStart"`
	Titles    []string     `json:"titles"`
	Rows      [][]SlotView `json:"rows"`
}

// TimetableQuery carries the week selector shared by the timetable endpoints.
type TimetableQuery struct {
	Week   int    `form:"week"`
	Format string `form:"format"`
}
