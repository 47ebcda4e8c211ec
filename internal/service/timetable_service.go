package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/room-booking-api/internal/dto"
	"github.com/noah-isme/room-booking-api/internal/models"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
	"github.com/noah-isme/room-booking-api/pkg/slotid"
)

type timetableRoomDirectory interface {
	Get(ctx context.Context, id int) (*models.Room, error)
}

type weekSlotReader interface {
	ListByRoomRange(ctx context.Context, roomID int, from, to slotid.Key) ([]models.Slot, error)
}

type weekSlotCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
	Generation(ctx context.Context, key string) (int64, error)
	Bump(ctx context.Context, key string) (int64, error)
}

// TimetableConfig drives week grid rendering.
type TimetableConfig struct {
	// OpenWeeks is how many weeks after the current one accept reservations.
	OpenWeeks  int
	WeekAnchor time.Time
	CacheTTL   time.Duration
}

// TimetableService materializes a room's week as a grid of stored and placeholder slots.
type TimetableService struct {
	rooms  timetableRoomDirectory
	slots  weekSlotReader
	cache  weekSlotCache
	codec  *slotid.Codec
	logger *zap.Logger
	cfg    TimetableConfig
	now    func() time.Time
}

// NewTimetableService constructs a TimetableService. cache may be nil.
func NewTimetableService(rooms timetableRoomDirectory, slots weekSlotReader, cache weekSlotCache, codec *slotid.Codec, logger *zap.Logger, cfg TimetableConfig) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if codec == nil {
		codec = slotid.New(nil)
	}
	return &TimetableService{rooms: rooms, slots: slots, cache: cache, codec: codec, logger: logger, cfg: cfg, now: time.Now}
}

// Build returns the week at offset from the current week. Negative offsets read history.
func (s *TimetableService) Build(ctx context.Context, roomID, offset int, viewer models.Actor) (*dto.TimetableResponse, error) {
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.codec.Location())
	weekStart := s.codec.WeekStart(now).AddDate(0, 0, 7*offset)
	from, to := s.codec.WeekRange(room.ID, weekStart)

	stored, err := s.weekSlots(ctx, room.ID, from, to)
	if err != nil {
		return nil, err
	}
	index := make(map[slotid.Key]models.Slot, len(stored))
	for _, slot := range stored {
		index[slot.ID] = slot
	}

	hours := room.Hours()
	titles := make([]string, 0, hours)
	rows := make([][]dto.SlotView, 0, hours)
	for hour := room.StartHour; hour < room.EndHour; hour++ {
		titles = append(titles, fmt.Sprintf("%02d:00 %02d:00", hour, hour+1))
		row := make([]dto.SlotView, 7)
		for day := 0; day < 7; day++ {
			key := from.AddHours(day*24 + hour)
			if slot, ok := index[key]; ok {
				row[day] = storedView(slot, viewer)
				continue
			}
			row[day] = s.placeholderView(key, offset, now)
		}
		rows = append(rows, row)
	}

	return &dto.TimetableResponse{
		RoomID:    room.ID,
		RoomName:  room.Name,
		Offset:    offset,
		Week:      weekNumber(s.cfg.WeekAnchor, weekStart),
		WeekStart: weekStart,
		Titles:    titles,
		Rows:      rows,
	}, nil
}

// InvalidateWeek moves the week containing key to a fresh cache generation.
// Entries written under an older generation are never read again.
func (s *TimetableService) InvalidateWeek(ctx context.Context, key slotid.Key) {
	if s.cache == nil {
		return
	}
	weekStart := s.codec.WeekStart(s.codec.Decode(key))
	from := s.codec.Encode(key.Room(), weekStart)
	gen, err := s.cache.Bump(ctx, weekGenerationKey(key.Room(), from))
	if err != nil {
		s.logger.Warn("failed to bump timetable week generation", zap.Int("room_id", key.Room()), zap.Int64("week_key", from.Int64()), zap.Error(err))
		return
	}
	if err := s.cache.Invalidate(ctx, weekCacheKey(key.Room(), from, gen-1)); err != nil {
		s.logger.Warn("failed to invalidate timetable week", zap.Int("room_id", key.Room()), zap.Int64("week_key", from.Int64()), zap.Error(err))
	}
}

func (s *TimetableService) weekSlots(ctx context.Context, roomID int, from, to slotid.Key) ([]models.Slot, error) {
	// The generation is read before the store so a commit racing this read
	// bumps it and strands whatever we write below.
	cacheKey := ""
	if s.cache != nil {
		if gen, err := s.cache.Generation(ctx, weekGenerationKey(roomID, from)); err == nil {
			cacheKey = weekCacheKey(roomID, from, gen)
			var cached []models.Slot
			if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
				return cached, nil
			}
		}
	}

	slots, err := s.slots.ListByRoomRange(ctx, roomID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load week slots")
	}

	if cacheKey != "" {
		if err := s.cache.Set(ctx, cacheKey, slots, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache timetable week", zap.Int("room_id", roomID), zap.Int64("week_key", from.Int64()), zap.Error(err))
		}
	}
	return slots, nil
}

func (s *TimetableService) placeholderView(key slotid.Key, offset int, now time.Time) dto.SlotView {
	start := s.codec.Decode(key)
	state := models.SlotStateIdle
	switch {
	case start.Before(now):
		state = models.SlotStatePassed
	case offset > s.cfg.OpenWeeks:
		state = models.SlotStateNotOpen
	}
	return dto.SlotView{Key: key, StartTime: start, State: state}
}

func storedView(slot models.Slot, viewer models.Actor) dto.SlotView {
	state := slot.State
	if state == models.SlotStateOccupied && slot.OwnedBy(viewer.UserID) {
		state = models.SlotStateMine
	}
	return dto.SlotView{
		Key:       slot.ID,
		StartTime: slot.StartTime,
		State:     state,
		ShowText:  slot.ShowText,
		CheckedIn: slot.CheckedIn,
		Stored:    true,
	}
}

func weekNumber(anchor, weekStart time.Time) int {
	days := slotid.DaysBetween(anchor, weekStart)
	week := days / 7
	if days < 0 && days%7 != 0 {
		week--
	}
	return week
}

func weekGenerationKey(roomID int, weekFrom slotid.Key) string {
	return fmt.Sprintf("timetable:room:%d:week:%d:gen", roomID, weekFrom.Int64())
}

func weekCacheKey(roomID int, weekFrom slotid.Key, gen int64) string {
	return fmt.Sprintf("timetable:room:%d:week:%d:v%d", roomID, weekFrom.Int64(), gen)
}
