package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"tripchat/internal/models"
)

// Users is the account storage the auth handlers need.
type Users interface {
	Create(ctx context.Context, name, email, passwordHash string) (int64, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeRequest reads a JSON body into v and validates its struct tags.
func decodeRequest(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return validate.Struct(v)
}
