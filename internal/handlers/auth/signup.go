package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"tripchat/internal/database"
	"tripchat/internal/utils"
)

type SignupHandler struct {
	Users Users
	Log   logrus.FieldLogger
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type SignupResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ServeHTTP handles POST /auth/signup
func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeRequest(r, &req); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		h.Log.WithError(err).Error("hash password")
		utils.Fail(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	id, err := h.Users.Create(r.Context(), req.Name, req.Email, hash)
	if errors.Is(err, database.ErrAlreadyExists) {
		utils.Fail(w, http.StatusConflict, "Email already registered")
		return
	}
	if err != nil {
		h.Log.WithError(err).Error("create user")
		utils.Fail(w, http.StatusInternalServerError, "Could not create user")
		return
	}

	h.Log.WithField("user_id", id).Info("user signed up")
	utils.JSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "User created successfully",
		Data:    SignupResponse{ID: id, Email: req.Email, Name: req.Name},
	})
}
