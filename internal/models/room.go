package models

import "time"

// Room is a bookable space with an hourly operating window and per-user quotas.
type Room struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	ClubID    *string   `db:"club_id" json:"club_id,omitempty"`
	StartHour int       `db:"start_hour" json:"start_hour"`
	EndHour   int       `db:"end_hour" json:"end_hour"`
	WeekLimit int       `db:"week_limit" json:"week_limit"`
	DayLimit  int       `db:"day_limit" json:"day_limit"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Public reports whether the room is open to every user.
func (r *Room) Public() bool {
	return r.ClubID == nil || *r.ClubID == ""
}

// Hours returns the number of hourly rows in the room's operating window.
func (r *Room) Hours() int {
	if r.EndHour <= r.StartHour {
		return 0
	}
	return r.EndHour - r.StartHour
}

// OpenAt reports whether hour falls inside [StartHour, EndHour).
func (r *Room) OpenAt(hour int) bool {
	return hour >= r.StartHour && hour < r.EndHour
}
