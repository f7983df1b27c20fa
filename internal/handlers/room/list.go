package room

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"tripchat/internal/middleware"
	"tripchat/internal/utils"
)

type RoomListHandler struct {
	Trips Trips
	Log   logrus.FieldLogger
}

// ServeHTTP handles GET /rooms
func (h *RoomListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	trips, err := h.Trips.TripsOf(r.Context(), userID)
	if err != nil {
		h.Log.WithField("user_id", userID).WithError(err).Error("list trips")
		utils.Fail(w, http.StatusInternalServerError, "DB error")
		return
	}
	utils.JSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "rooms fetched", Data: trips})
}
