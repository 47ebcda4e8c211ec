package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/room-booking-api/internal/middleware"
	"github.com/noah-isme/room-booking-api/internal/models"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
	"github.com/noah-isme/room-booking-api/pkg/response"
	"github.com/noah-isme/room-booking-api/pkg/slotid"
)

// actorFromContext builds the acting user from JWT claims and request metadata.
// It writes a 401 and returns false when no claims are present.
func actorFromContext(c *gin.Context) (models.Actor, bool) {
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Actor{}, false
	}
	actor := claims.Actor()
	actor.IPAddress = c.ClientIP()
	actor.UserAgent = c.GetHeader("User-Agent")
	return actor, true
}

func slotKeyParam(c *gin.Context) (slotid.Key, bool) {
	key, err := slotid.Parse(c.Param("key"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot key"))
		return 0, false
	}
	return key, true
}

func roomIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room id"))
		return 0, false
	}
	return id, true
}
