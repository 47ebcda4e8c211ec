package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/room-booking-api/internal/dto"
	"github.com/noah-isme/room-booking-api/internal/models"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
	"github.com/noah-isme/room-booking-api/pkg/lock"
	"github.com/noah-isme/room-booking-api/pkg/middleware/requestid"
	"github.com/noah-isme/room-booking-api/pkg/slotid"
)

const slotLockPrefix = "slot_lock:"

// checkInGrace is how long after a slot starts its owner may still check in.
const checkInGrace = time.Hour

type bookingRoomDirectory interface {
	Get(ctx context.Context, id int) (*models.Room, error)
	AvailableTo(ctx context.Context, room *models.Room, actor models.Actor) (bool, error)
}

type slotStore interface {
	FindByID(ctx context.Context, key slotid.Key) (*models.Slot, error)
	ListByRoomRange(ctx context.Context, roomID int, from, to slotid.Key) ([]models.Slot, error)
	Upsert(ctx context.Context, slot *models.Slot) error
	Delete(ctx context.Context, key slotid.Key) error
}

type slotLocker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (*lock.Lease, error)
}

type weekInvalidator interface {
	InvalidateWeek(ctx context.Context, key slotid.Key)
}

// BookingConfig tunes the booking engine.
type BookingConfig struct {
	OpenWeeks int
	LockTTL   time.Duration
}

// BookingService reserves, releases and administers slots. Every mutation of a key
// runs under that key's lock, and storage is written only after all checks pass.
type BookingService struct {
	rooms     bookingRoomDirectory
	slots     slotStore
	locker    slotLocker
	codec     *slotid.Codec
	weeks     weekInvalidator
	audit     auditRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       BookingConfig
	now       func() time.Time
}

// NewBookingService constructs a BookingService. weeks, audit and metrics may be nil.
func NewBookingService(rooms bookingRoomDirectory, slots slotStore, locker slotLocker, codec *slotid.Codec, weeks weekInvalidator, audit auditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg BookingConfig) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if codec == nil {
		codec = slotid.New(nil)
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Second
	}
	return &BookingService{
		rooms:     rooms,
		slots:     slots,
		locker:    locker,
		codec:     codec,
		weeks:     weeks,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Occupy reserves the slot for the actor.
func (s *BookingService) Occupy(ctx context.Context, key slotid.Key, actor models.Actor) (*models.Slot, error) {
	var result *models.Slot
	err := s.run(ctx, OperationOccupy, key, actor, func() error {
		slot, err := s.occupy(ctx, key, actor)
		result = slot
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel releases a reservation. Only its owner or a system administrator may cancel.
func (s *BookingService) Cancel(ctx context.Context, key slotid.Key, actor models.Actor) error {
	return s.run(ctx, OperationCancel, key, actor, func() error {
		return s.cancel(ctx, key, actor)
	})
}

// CheckIn marks a reservation as attended.
func (s *BookingService) CheckIn(ctx context.Context, key slotid.Key, actor models.Actor) (*models.Slot, error) {
	var result *models.Slot
	err := s.run(ctx, OperationCheckIn, key, actor, func() error {
		slot, err := s.checkIn(ctx, key, actor)
		result = slot
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Disable blocks the slot, replacing any reservation on it.
func (s *BookingService) Disable(ctx context.Context, key slotid.Key, req dto.DisableSlotRequest, actor models.Actor) (*models.Slot, error) {
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordBookingOperation(OperationDisable, appErrors.ErrValidation)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid disable payload")
	}
	var result *models.Slot
	err := s.run(ctx, OperationDisable, key, actor, func() error {
		slot, err := s.disable(ctx, key, req, actor)
		result = slot
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Enable lifts a disable, leaving the slot free.
func (s *BookingService) Enable(ctx context.Context, key slotid.Key, actor models.Actor) error {
	return s.run(ctx, OperationEnable, key, actor, func() error {
		return s.enable(ctx, key, actor)
	})
}

// run checks identity, holds the key's lock around fn and records the outcome.
func (s *BookingService) run(ctx context.Context, operation string, key slotid.Key, actor models.Actor, fn func() error) error {
	err := s.guard(ctx, key, actor, fn)
	s.metrics.RecordBookingOperation(operation, err)
	if err != nil {
		fields := []zap.Field{
			zap.String("operation", operation),
			zap.Int64("slot_key", key.Int64()),
			zap.Int("room_id", key.Room()),
			zap.String("user_id", actor.UserID),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err),
		}
		if appErrors.FromError(err).Status >= 500 {
			s.logger.Error("booking operation failed", fields...)
		} else {
			s.logger.Info("booking operation rejected", fields...)
		}
	}
	return err
}

func (s *BookingService) guard(ctx context.Context, key slotid.Key, actor models.Actor, fn func() error) error {
	if actor.UserID == "" {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	if err := slotid.ValidateRoom(key.Room()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot key")
	}

	lease, err := s.locker.Acquire(ctx, slotLockPrefix+key.String(), s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			s.metrics.RecordLockContention()
			return appErrors.Clone(appErrors.ErrConflict, "slot is being updated, retry shortly")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire slot lock")
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("slot lock release failed", zap.String("lock", lease.Name()), zap.Error(err))
		}
	}()

	return fn()
}

func (s *BookingService) occupy(ctx context.Context, key slotid.Key, actor models.Actor) (*models.Slot, error) {
	resolved, err := s.resolve(ctx, key)
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.Get(ctx, key.Room())
	if err != nil {
		return nil, err
	}

	if !actor.IsSystemAdmin() {
		ok, err := s.rooms.AvailableTo(ctx, room, actor)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "room is not available to you")
		}
	}

	start := resolved.Slot.StartTime
	now := s.now()
	if start.Before(now) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot reserve a slot in the past")
	}
	if s.codec.WeekStart(start).After(now.AddDate(0, 0, 7*s.cfg.OpenWeeks)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "week is not open for reservations yet")
	}
	if !room.OpenAt(key.Hour()) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "slot is outside the room's opening hours")
	}

	if resolved.IsStored() {
		current := resolved.Slot
		switch {
		case current.State.Disabled():
			return nil, appErrors.Clone(appErrors.ErrForbidden, "slot is disabled")
		case current.OwnedBy(actor.UserID):
			return &current, nil
		case current.State == models.SlotStateOccupied:
			return nil, appErrors.Clone(appErrors.ErrForbidden, "slot is already reserved")
		}
	}

	if err := s.checkQuota(ctx, room, key, actor); err != nil {
		return nil, err
	}

	checkedIn, err := s.inheritsCheckIn(ctx, key, actor)
	if err != nil {
		return nil, err
	}

	slot := resolved.Slot
	slot.UserID = &actor.UserID
	slot.ShowText = actor.FullName
	slot.State = models.SlotStateOccupied
	slot.CheckedIn = checkedIn
	if err := s.slots.Upsert(ctx, &slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save reservation")
	}

	s.afterCommit(ctx, models.AuditActionSlotOccupy, key, actor, nil, &slot)
	return &slot, nil
}

func (s *BookingService) cancel(ctx context.Context, key slotid.Key, actor models.Actor) error {
	slot, err := s.findStored(ctx, key, "slot is not reserved")
	if err != nil {
		return err
	}
	if !slot.OwnedBy(actor.UserID) && !actor.IsSystemAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "only the owner can cancel this reservation")
	}

	if err := s.slots.Delete(ctx, key); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel reservation")
	}

	s.afterCommit(ctx, models.AuditActionSlotCancel, key, actor, slot, nil)
	return nil
}

func (s *BookingService) checkIn(ctx context.Context, key slotid.Key, actor models.Actor) (*models.Slot, error) {
	slot, err := s.findStored(ctx, key, "slot is not reserved")
	if err != nil {
		return nil, err
	}
	if slot.State != models.SlotStateOccupied {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "slot is not reserved")
	}
	if !slot.OwnedBy(actor.UserID) && !actor.IsSystemAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owner can check in")
	}
	if !s.now().Before(s.codec.Decode(key).Add(checkInGrace)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "slot already finished")
	}
	if slot.CheckedIn {
		return slot, nil
	}

	before := *slot
	slot.CheckedIn = true
	if err := s.slots.Upsert(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save check-in")
	}

	s.afterCommit(ctx, models.AuditActionSlotCheckIn, key, actor, &before, slot)
	return slot, nil
}

func (s *BookingService) disable(ctx context.Context, key slotid.Key, req dto.DisableSlotRequest, actor models.Actor) (*models.Slot, error) {
	if !actor.IsSystemAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only system administrators can disable slots")
	}
	if _, err := s.rooms.Get(ctx, key.Room()); err != nil {
		return nil, err
	}

	resolved, err := s.resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	if resolved.Slot.StartTime.Before(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot disable a slot in the past")
	}

	var before *models.Slot
	if resolved.IsStored() {
		prev := resolved.Slot
		before = &prev
	}

	slot := resolved.Slot
	slot.UserID = nil
	slot.ShowText = req.Reason
	slot.State = req.State()
	slot.CheckedIn = false
	if err := s.slots.Upsert(ctx, &slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to disable slot")
	}

	s.afterCommit(ctx, models.AuditActionSlotDisable, key, actor, before, &slot)
	return &slot, nil
}

func (s *BookingService) enable(ctx context.Context, key slotid.Key, actor models.Actor) error {
	if !actor.IsSystemAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "only system administrators can enable slots")
	}
	slot, err := s.findStored(ctx, key, "slot is not disabled")
	if err != nil {
		return err
	}
	if !slot.State.Disabled() {
		return appErrors.Clone(appErrors.ErrNotFound, "slot is not disabled")
	}

	if err := s.slots.Delete(ctx, key); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enable slot")
	}

	s.afterCommit(ctx, models.AuditActionSlotEnable, key, actor, slot, nil)
	return nil
}

// resolve returns the stored slot or an unoccupied placeholder for key.
func (s *BookingService) resolve(ctx context.Context, key slotid.Key) (models.ResolvedSlot, error) {
	slot, err := s.slots.FindByID(ctx, key)
	if err == nil {
		return models.Stored(*slot), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.ResolvedSlot{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	return models.Synthesized(models.Slot{
		ID:        key,
		RoomID:    key.Room(),
		State:     models.SlotStateIdle,
		StartTime: s.codec.Decode(key),
	}), nil
}

func (s *BookingService) findStored(ctx context.Context, key slotid.Key, missing string) (*models.Slot, error) {
	slot, err := s.slots.FindByID(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, missing)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	return slot, nil
}

// checkQuota counts the actor's reservations in the room over the target's week and day.
func (s *BookingService) checkQuota(ctx context.Context, room *models.Room, key slotid.Key, actor models.Actor) error {
	from, to := s.codec.WeekRange(room.ID, s.codec.WeekStart(s.codec.Decode(key)))
	slots, err := s.slots.ListByRoomRange(ctx, room.ID, from, to)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reservations")
	}

	var week, day int
	for _, slot := range slots {
		if slot.State != models.SlotStateOccupied || !slot.OwnedBy(actor.UserID) {
			continue
		}
		week++
		if slot.ID.Day() == key.Day() {
			day++
		}
	}

	if week >= room.WeekLimit || day >= room.DayLimit {
		return appErrors.Clone(appErrors.ErrForbidden, "reservation quota exceeded").WithDetails(map[string]interface{}{
			"weekLimit": room.WeekLimit,
			"dayLimit":  room.DayLimit,
			"weekUsed":  week,
			"dayUsed":   day,
		})
	}
	return nil
}

// inheritsCheckIn reports whether the actor held and checked in to the same slot one week earlier.
func (s *BookingService) inheritsCheckIn(ctx context.Context, key slotid.Key, actor models.Actor) (bool, error) {
	prev, err := s.slots.FindByID(ctx, key.AddWeeks(-1))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load previous week's slot")
	}
	return prev.OwnedBy(actor.UserID) && prev.CheckedIn, nil
}

func (s *BookingService) afterCommit(ctx context.Context, action string, key slotid.Key, actor models.Actor, before, after *models.Slot) {
	if s.weeks != nil {
		s.weeks.InvalidateWeek(ctx, key)
	}
	if s.audit == nil {
		return
	}
	resourceID := key.String()
	userID := actor.UserID
	s.audit.Record(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   models.AuditResourceTimeSlot,
		ResourceID: &resourceID,
		OldValues:  marshalSlot(before),
		NewValues:  marshalSlot(after),
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
	})
}

func marshalSlot(slot *models.Slot) []byte {
	if slot == nil {
		return nil
	}
	raw, err := json.Marshal(slot)
	if err != nil {
		return nil
	}
	return raw
}
