package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"tripchat/internal/database"
	"tripchat/internal/utils"
)

type LoginHandler struct {
	Users     Users
	JWTSecret string
	JWTTTLHrs int
	Log       logrus.FieldLogger
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// ServeHTTP handles POST /auth/login
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeRequest(r, &req); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.Users.FindByEmail(r.Context(), req.Email)
	if errors.Is(err, database.ErrNotFound) {
		utils.Fail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		h.Log.WithError(err).Error("find user")
		utils.Fail(w, http.StatusInternalServerError, "Database error")
		return
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		utils.Fail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := utils.GenerateJWT(user.ID, h.JWTSecret, h.JWTTTLHrs)
	if err != nil {
		h.Log.WithError(err).Error("sign token")
		utils.Fail(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	utils.JSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Login successful",
		Data:    LoginResponse{Token: token, UserID: user.ID, Email: user.Email, Name: user.Name},
	})
}
