package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"tripchat/internal/database"
	"tripchat/internal/middleware"
	"tripchat/internal/models"
	"tripchat/internal/utils"
)

type Users interface {
	FindByID(ctx context.Context, id int64) (models.User, error)
}

type MeHandler struct {
	Users Users
	Log   logrus.FieldLogger
}

// ServeHTTP handles GET /user/me
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	u, err := h.Users.FindByID(r.Context(), userID)
	if errors.Is(err, database.ErrNotFound) {
		utils.Fail(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.Log.WithField("user_id", userID).WithError(err).Error("find user")
		utils.Fail(w, http.StatusInternalServerError, "Database error")
		return
	}

	utils.JSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "User details retrieved successfully",
		Data:    u,
	})
}
