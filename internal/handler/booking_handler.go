package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/room-booking-api/internal/dto"
	"github.com/noah-isme/room-booking-api/internal/models"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
	"github.com/noah-isme/room-booking-api/pkg/response"
	"github.com/noah-isme/room-booking-api/pkg/slotid"
)

type bookingService interface {
	Occupy(ctx context.Context, key slotid.Key, actor models.Actor) (*models.Slot, error)
	Cancel(ctx context.Context, key slotid.Key, actor models.Actor) error
	CheckIn(ctx context.Context, key slotid.Key, actor models.Actor) (*models.Slot, error)
	Disable(ctx context.Context, key slotid.Key, req dto.DisableSlotRequest, actor models.Actor) (*models.Slot, error)
	Enable(ctx context.Context, key slotid.Key, actor models.Actor) error
}

// BookingHandler exposes slot reservation endpoints.
type BookingHandler struct {
	service bookingService
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc bookingService) *BookingHandler {
	return &BookingHandler{service: svc}
}

// Occupy godoc
// @Summary Reserve a slot
// @Description Reserves the hourly slot for the current user. Contention returns 409 with Retry-After.
// @Tags Slots
// @Produce json
// @Security BearerAuth
// @Param key path string true "Slot key"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /slots/{key}/occupy [post]
func (h *BookingHandler) Occupy(c *gin.Context) {
	h.mutate(c, h.service.Occupy)
}

// Cancel godoc
// @Summary Cancel a reservation
// @Description Releases a reserved slot. Only the holder or a super admin may cancel.
// @Tags Slots
// @Security BearerAuth
// @Param key path string true "Slot key"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /slots/{key} [delete]
func (h *BookingHandler) Cancel(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	key, ok := slotKeyParam(c)
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), key, actor); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// CheckIn godoc
// @Summary Check in to a reservation
// @Description Marks a reserved slot as attended until one hour after it starts
// @Tags Slots
// @Produce json
// @Security BearerAuth
// @Param key path string true "Slot key"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /slots/{key}/check-in [post]
func (h *BookingHandler) CheckIn(c *gin.Context) {
	h.mutate(c, h.service.CheckIn)
}

// Disable godoc
// @Summary Disable a slot
// @Description Blocks a slot from reservation, replacing any existing reservation
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param key path string true "Slot key"
// @Param payload body dto.DisableSlotRequest true "Disable payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/slots/{key}/disable [post]
func (h *BookingHandler) Disable(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	key, ok := slotKeyParam(c)
	if !ok {
		return
	}
	var req dto.DisableSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid disable payload"))
		return
	}

	slot, err := h.service.Disable(c.Request.Context(), key, req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, slot)
}

// Enable godoc
// @Summary Re-enable a slot
// @Description Lifts a disabled slot back to free
// @Tags Admin
// @Security BearerAuth
// @Param key path string true "Slot key"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/slots/{key}/disable [delete]
func (h *BookingHandler) Enable(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	key, ok := slotKeyParam(c)
	if !ok {
		return
	}

	if err := h.service.Enable(c.Request.Context(), key, actor); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

func (h *BookingHandler) mutate(c *gin.Context, op func(context.Context, slotid.Key, models.Actor) (*models.Slot, error)) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	key, ok := slotKeyParam(c)
	if !ok {
		return
	}

	slot, err := op(c.Request.Context(), key, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, slot)
}
