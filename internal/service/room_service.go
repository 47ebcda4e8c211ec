package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/room-booking-api/internal/models"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
	"github.com/noah-isme/room-booking-api/pkg/slotid"
)

type roomRepository interface {
	FindByID(ctx context.Context, id int) (*models.Room, error)
	List(ctx context.Context) ([]models.Room, error)
}

type membershipReader interface {
	IsMember(ctx context.Context, clubID, userID string) (bool, error)
	ListClubIDs(ctx context.Context, userID string) ([]string, error)
}

// RoomService is the room directory: lookups and availability to a user.
type RoomService struct {
	rooms   roomRepository
	members membershipReader
	logger  *zap.Logger
}

// NewRoomService constructs a RoomService.
func NewRoomService(rooms roomRepository, members membershipReader, logger *zap.Logger) *RoomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{rooms: rooms, members: members, logger: logger}
}

// Get returns an active room.
func (s *RoomService) Get(ctx context.Context, id int) (*models.Room, error) {
	if err := slotid.ValidateRoom(id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room id")
	}
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

// AvailableTo reports whether the user may book the room: public rooms are open to all,
// club rooms only to the club's members.
func (s *RoomService) AvailableTo(ctx context.Context, room *models.Room, actor models.Actor) (bool, error) {
	if room.Public() {
		return true, nil
	}
	if actor.UserID == "" {
		return false, nil
	}
	ok, err := s.members.IsMember(ctx, *room.ClubID, actor.UserID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check club membership")
	}
	return ok, nil
}

// List returns the rooms the actor can book. System administrators see every room.
func (s *RoomService) List(ctx context.Context, actor models.Actor) ([]models.Room, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	if actor.IsSystemAdmin() {
		return rooms, nil
	}

	clubs := map[string]struct{}{}
	if actor.UserID != "" {
		ids, err := s.members.ListClubIDs(ctx, actor.UserID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load club memberships")
		}
		for _, id := range ids {
			clubs[id] = struct{}{}
		}
	}

	available := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		if room.Public() {
			available = append(available, room)
			continue
		}
		if _, ok := clubs[*room.ClubID]; ok {
			available = append(available, room)
		}
	}
	return available, nil
}
