package middleware

import (
	"context"
	"net/http"
	"strings"

	logger "github.com/chi-middleware/logrus-logger"
	"github.com/sirupsen/logrus"

	"tripchat/internal/utils"
)

type contextKey string

// UserIDKey holds the authenticated user id (int64) on the request context.
const UserIDKey contextKey = "user_id"

// Logger logs every request through logrus under the "router" category.
func Logger(log *logrus.Logger) func(http.Handler) http.Handler {
	return logger.Logger("router", log)
}

// AuthJWT rejects requests without a valid token and stores the user id in
// the request context.
func AuthJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := utils.ParseJWT(TokenFromRequest(r), secret)
			if err != nil {
				utils.Fail(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// TokenFromRequest reads the bearer token from the Authorization header, the
// token query parameter or the token cookie, in that order.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if c, err := r.Cookie("token"); err == nil {
		return c.Value
	}
	return ""
}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok && id > 0
}
