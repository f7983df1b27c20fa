package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the authenticated user id in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateJWT signs an HS256 token for userID valid for ttlHours.
func GenerateJWT(userID int64, secret string, ttlHours int) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlHours) * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseJWT returns user id from token string if valid
func ParseJWT(tokenStr string, secret string) (int64, error) {
	if tokenStr == "" {
		return 0, jwt.ErrTokenMalformed
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, err
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, errors.Join(jwt.ErrTokenInvalidClaims, fmt.Errorf("subject %q", claims.Subject))
	}
	return userID, nil
}
