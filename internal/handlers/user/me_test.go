package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tripchat/internal/database"
	"tripchat/internal/logging"
	"tripchat/internal/middleware"
	"tripchat/internal/models"
)

type usersByID map[int64]models.User

func (u usersByID) FindByID(_ context.Context, id int64) (models.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return models.User{}, database.ErrNotFound
}

func TestMe(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h := &MeHandler{
		Users: usersByID{1: {ID: 1, Name: "Ana", Email: "ana@example.com", PasswordHash: "secret-hash", CreatedAt: at}},
		Log:   logging.Discard(),
	}

	get := func(userID int64) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/user/me", nil)
		if userID > 0 {
			r = r.WithContext(middleware.WithUserID(r.Context(), userID))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	rec := get(1)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"User details retrieved successfully",
		"data":{"id":1,"name":"Ana","email":"ana@example.com","created_at":"2026-01-02T03:04:05Z"}}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(2).Code)
	assert.Equal(t, http.StatusUnauthorized, get(0).Code)
}
