// Package slotid addresses hourly room slots with a single ordered integer.
//
// A key is laid out as (civilDay*24 + hour)*RoomSpace + room, where civilDay
// counts calendar days since 1970-01-01 of the slot's wall-clock date. Keys
// therefore sort by time within a room, the room is recoverable as
// key mod RoomSpace, and the same hour one calendar week later is exactly
// WeekStride above, DST notwithstanding.
package slotid

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

const (
	// RoomSpace bounds room identifiers; rooms live in the low digits of a key.
	RoomSpace = 10_000
	// HoursPerWeek is the number of hourly positions in one calendar week.
	HoursPerWeek = 7 * 24
	// WeekStride separates a key from the same room, weekday and hour one week later.
	WeekStride Key = HoursPerWeek * RoomSpace

	secondsPerDay = 24 * 60 * 60
)

var (
	ErrInvalidRoom = errors.New("room id out of range")
	ErrInvalidKey  = errors.New("invalid slot key")
)

// Key identifies one hourly slot of one room.
type Key int64

// Room returns the room component of the key.
func (k Key) Room() int {
	r := int64(k) % RoomSpace
	if r < 0 {
		r += RoomSpace
	}
	return int(r)
}

// AddWeeks shifts the key by whole calendar weeks.
func (k Key) AddWeeks(n int) Key {
	return k + Key(n)*WeekStride
}

// Hour returns the wall-clock hour of the slot, 0 to 23.
func (k Key) Hour() int {
	return int(k.hourIndex() - floorDiv(k.hourIndex(), 24)*24)
}

// Day returns the slot's calendar day counted from 1970-01-01. Keys on the same date share a Day.
func (k Key) Day() int64 {
	return floorDiv(k.hourIndex(), 24)
}

// AddHours shifts the key by wall-clock hours within the same room.
func (k Key) AddHours(n int) Key {
	return k + Key(n)*RoomSpace
}

// Int64 returns the raw key.
func (k Key) Int64() int64 {
	return int64(k)
}

func (k Key) String() string {
	return strconv.FormatInt(int64(k), 10)
}

// hourIndex is the number of wall-clock hours since 1970-01-01T00:00.
func (k Key) hourIndex() int64 {
	return (int64(k) - int64(k.Room())) / RoomSpace
}

// ValidateRoom reports whether id can be encoded into a key.
func ValidateRoom(id int) error {
	if id <= 0 || id >= RoomSpace {
		return fmt.Errorf("%w: %d", ErrInvalidRoom, id)
	}
	return nil
}

// Parse reads a key from its decimal form and checks its room component.
func Parse(raw string) (Key, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidKey, raw)
	}
	k := Key(v)
	if err := ValidateRoom(k.Room()); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return k, nil
}

// Codec encodes and decodes keys against the wall clock of one location.
type Codec struct {
	loc *time.Location
}

// New returns a codec for loc; nil means time.Local.
func New(loc *time.Location) *Codec {
	if loc == nil {
		loc = time.Local
	}
	return &Codec{loc: loc}
}

// Location returns the wall clock the codec addresses slots in.
func (c *Codec) Location() *time.Location {
	return c.loc
}

// Encode returns the key of the slot containing t. room must satisfy ValidateRoom.
func (c *Codec) Encode(room int, t time.Time) Key {
	t = t.In(c.loc)
	hours := civilDay(t)*24 + int64(t.Hour())
	return Key(hours*RoomSpace + int64(room))
}

// Decode returns the start of the slot named by k.
func (c *Codec) Decode(k Key) time.Time {
	y, m, d := time.Unix(k.Day()*secondsPerDay, 0).UTC().Date()
	return time.Date(y, m, d, k.Hour(), 0, 0, 0, c.loc)
}

// WeekStart returns Monday 00:00 of the calendar week containing t.
func (c *Codec) WeekStart(t time.Time) time.Time {
	t = t.In(c.loc)
	y, m, d := t.Date()
	return time.Date(y, m, d-DayIndex(t), 0, 0, 0, 0, c.loc)
}

// WeekRange returns the half-open key range [from, to) of a room's week starting at weekStart.
func (c *Codec) WeekRange(room int, weekStart time.Time) (from, to Key) {
	from = c.Encode(room, weekStart)
	return from, from.AddWeeks(1)
}

// DayIndex returns the weekday of t with Monday as 0 and Sunday as 6.
func DayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// DaysBetween returns the number of calendar days from a's date to b's date, each read on its own wall clock.
func DaysBetween(a, b time.Time) int {
	return int(civilDay(b) - civilDay(a))
}

func civilDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
