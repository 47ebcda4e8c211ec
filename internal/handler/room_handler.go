package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/room-booking-api/internal/dto"
	"github.com/noah-isme/room-booking-api/internal/models"
	"github.com/noah-isme/room-booking-api/internal/service"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
	"github.com/noah-isme/room-booking-api/pkg/response"
)

type roomLister interface {
	List(ctx context.Context, actor models.Actor) ([]models.Room, error)
}

type timetableBuilder interface {
	Build(ctx context.Context, roomID, offset int, viewer models.Actor) (*dto.TimetableResponse, error)
}

type timetableExporter interface {
	Timetable(ctx context.Context, roomID, offset int, format string, viewer models.Actor) (*service.ExportResult, error)
}

// RoomHandler serves room listings and week timetables.
type RoomHandler struct {
	rooms      roomLister
	timetables timetableBuilder
	exports    timetableExporter
}

// NewRoomHandler constructs a RoomHandler.
func NewRoomHandler(rooms roomLister, timetables timetableBuilder, exports timetableExporter) *RoomHandler {
	return &RoomHandler{rooms: rooms, timetables: timetables, exports: exports}
}

// List godoc
// @Summary List rooms
// @Description Lists the rooms the current user may book: public rooms plus rooms of their clubs
// @Tags Rooms
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /rooms [get]
func (h *RoomHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	rooms, err := h.rooms.List(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		items = append(items, dto.NewRoomResponse(room))
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Timetable godoc
// @Summary Week timetable
// @Description Returns the room's week grid; week is an offset from the current week
// @Tags Rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param week query int false "Week offset, 0 is the current week"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rooms/{id}/timetable [get]
func (h *RoomHandler) Timetable(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	query, ok := bindTimetableQuery(c)
	if !ok {
		return
	}

	grid, err := h.timetables.Build(c.Request.Context(), roomID, query.Week, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, grid)
}

// Export godoc
// @Summary Export week timetable
// @Description Downloads the room's week grid as CSV or PDF
// @Tags Rooms
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param week query int false "Week offset, 0 is the current week"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /rooms/{id}/timetable/export [get]
func (h *RoomHandler) Export(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	query, ok := bindTimetableQuery(c)
	if !ok {
		return
	}

	result, err := h.exports.Timetable(c.Request.Context(), roomID, query.Week, query.Format, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.File(c, result.Filename, result.ContentType, result.Body)
}

func bindTimetableQuery(c *gin.Context) (dto.TimetableQuery, bool) {
	var query dto.TimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable query"))
		return query, false
	}
	return query, true
}
