package slotid

import (
	"errors"
	"math/rand"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomTimes(n int, loc *time.Location) []time.Time {
	rng := rand.New(rand.NewSource(42))
	start := time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	end := time.Date(2150, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	out := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		sec := start + rng.Int63n(end-start)
		out = append(out, time.Unix(sec, 0).In(loc))
	}
	return out
}

func hourStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location())
}

func TestCodecRoundTrip(t *testing.T) {
	codec := New(time.UTC)
	rooms := []int{1, 7, 42, 1234, RoomSpace - 1}
	for _, ts := range randomTimes(2000, time.UTC) {
		for _, room := range rooms {
			key := codec.Encode(room, ts)
			require.Equal(t, room, key.Room(), "room of %v at %s", key, ts)
			require.True(t, codec.Decode(key).Equal(hourStart(ts)), "decode %v at %s", key, ts)
		}
	}
}

func TestCodecWeekStride(t *testing.T) {
	codec := New(time.UTC)
	for _, ts := range randomTimes(2000, time.UTC) {
		key := codec.Encode(17, ts)
		next := codec.Encode(17, ts.AddDate(0, 0, 7))
		require.Equal(t, WeekStride, next-key, "stride at %s", ts)
		assert.Equal(t, next, key.AddWeeks(1))
	}
}

func TestCodecWeekStrideAcrossDaylightSaving(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	codec := New(loc)

	before := time.Date(2026, time.March, 5, 10, 0, 0, 0, loc)
	after := before.AddDate(0, 0, 7)
	assert.Equal(t, WeekStride, codec.Encode(3, after)-codec.Encode(3, before))

	fall := time.Date(2026, time.October, 29, 23, 0, 0, 0, loc)
	assert.Equal(t, WeekStride, codec.Encode(3, fall.AddDate(0, 0, 7))-codec.Encode(3, fall))
	assert.True(t, codec.Decode(codec.Encode(3, after)).Equal(after))
}

func TestCodecOrderedByTimeWithinRoom(t *testing.T) {
	codec := New(time.UTC)
	base := time.Date(2026, time.October, 19, 8, 0, 0, 0, time.UTC)
	prev := codec.Encode(5, base)
	for i := 1; i < 500; i++ {
		next := codec.Encode(5, base.Add(time.Duration(i)*time.Hour))
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestCodecTruncatesToHour(t *testing.T) {
	codec := New(time.UTC)
	at := time.Date(2026, time.October, 21, 14, 59, 59, 999, time.UTC)
	key := codec.Encode(9, at)
	assert.Equal(t, codec.Encode(9, time.Date(2026, time.October, 21, 14, 0, 0, 0, time.UTC)), key)
	assert.Equal(t, time.Date(2026, time.October, 21, 14, 0, 0, 0, time.UTC), codec.Decode(key))
}

func TestCodecEncodesInItsOwnLocation(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)
	codec := New(shanghai)
	utc := time.Date(2026, time.October, 19, 16, 30, 0, 0, time.UTC)

	decoded := codec.Decode(codec.Encode(2, utc))
	assert.Equal(t, 0, decoded.Hour())
	assert.Equal(t, 20, decoded.Day())
	assert.True(t, decoded.Equal(time.Date(2026, time.October, 19, 16, 0, 0, 0, time.UTC)))
}

func TestWeekStartAndRange(t *testing.T) {
	codec := New(time.UTC)
	sunday := time.Date(2026, time.October, 25, 22, 0, 0, 0, time.UTC)
	start := codec.WeekStart(sunday)
	assert.Equal(t, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 6, DayIndex(sunday))
	assert.Equal(t, 0, DayIndex(start))

	from, to := codec.WeekRange(11, start)
	assert.Equal(t, WeekStride, to-from)
	inside := codec.Encode(11, sunday)
	assert.True(t, inside >= from && inside < to)
	assert.Equal(t, to, codec.Encode(11, start.AddDate(0, 0, 7)))
}

func TestParse(t *testing.T) {
	codec := New(time.UTC)
	key := codec.Encode(321, time.Date(2026, time.October, 20, 9, 0, 0, 0, time.UTC))

	parsed, err := Parse(key.String())
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	_, err = Parse("not-a-number")
	assert.True(t, errors.Is(err, ErrInvalidKey))

	_, err = Parse("4968000000")
	assert.True(t, errors.Is(err, ErrInvalidKey), "room 0 is not addressable")
}

func TestValidateRoom(t *testing.T) {
	assert.NoError(t, ValidateRoom(1))
	assert.NoError(t, ValidateRoom(RoomSpace-1))
	assert.ErrorIs(t, ValidateRoom(0), ErrInvalidRoom)
	assert.ErrorIs(t, ValidateRoom(RoomSpace), ErrInvalidRoom)
	assert.ErrorIs(t, ValidateRoom(-3), ErrInvalidRoom)
}

func TestAddHoursFollowsWallClock(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	codec := New(loc)

	monday := time.Date(2026, time.March, 2, 0, 0, 0, 0, loc)
	from := codec.Encode(4, monday)
	sundayTen := from.AddHours(6*24 + 10)
	assert.Equal(t, time.Date(2026, time.March, 8, 10, 0, 0, 0, loc), codec.Decode(sundayTen))
	assert.Equal(t, 4, sundayTen.Room())
}

func TestDaysBetween(t *testing.T) {
	anchor := time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysBetween(anchor, anchor.Add(23*time.Hour)))
	assert.Equal(t, 42, DaysBetween(anchor, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, -7, DaysBetween(anchor, time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)))
}

func TestKeyHourAndDay(t *testing.T) {
	codec := New(time.UTC)
	mon := codec.Encode(8, time.Date(2026, time.October, 19, 23, 0, 0, 0, time.UTC))
	tue := codec.Encode(8, time.Date(2026, time.October, 20, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 23, mon.Hour())
	assert.Equal(t, 0, tue.Hour())
	assert.Equal(t, mon.Day()+1, tue.Day())
	assert.Equal(t, mon.AddHours(1), tue)

	early := codec.Encode(8, time.Date(1969, time.December, 31, 5, 0, 0, 0, time.UTC))
	assert.Equal(t, 5, early.Hour())
	assert.Equal(t, int64(-1), early.Day())
}
