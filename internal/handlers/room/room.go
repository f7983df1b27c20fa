package room

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"tripchat/internal/middleware"
	"tripchat/internal/models"
	"tripchat/internal/utils"
)

type Members interface {
	IsMember(ctx context.Context, roomID, userID int64) (bool, error)
}

type History interface {
	ListSince(ctx context.Context, roomID int64, cursor models.Cursor) ([]models.Message, error)
}

type Trips interface {
	TripsOf(ctx context.Context, userID int64) ([]models.Trip, error)
}

type Presence interface {
	OnlineUsers(roomID int64) []int64
}

// authorizeRoom resolves the caller and the {id} path parameter and checks
// membership. On failure the response has been written and ok is false.
func authorizeRoom(w http.ResponseWriter, r *http.Request, members Members, log logrus.FieldLogger) (userID, roomID int64, ok bool) {
	userID, ok = middleware.UserID(r.Context())
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Unauthorized")
		return 0, 0, false
	}

	roomID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || roomID <= 0 {
		utils.Fail(w, http.StatusBadRequest, "invalid room id")
		return 0, 0, false
	}

	member, err := members.IsMember(r.Context(), roomID, userID)
	if err != nil {
		log.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).WithError(err).Error("membership check failed")
		utils.Fail(w, http.StatusInternalServerError, "DB error checking membership")
		return 0, 0, false
	}
	if !member {
		utils.Fail(w, http.StatusForbidden, "user not a member of the room")
		return 0, 0, false
	}
	return userID, roomID, true
}
