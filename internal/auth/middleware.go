package auth

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	subjectKey contextKey = "subject"
	roleKey    contextKey = "role"
)

// SubjectID returns the authenticated account ID stored by the middleware.
func SubjectID(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(subjectKey).(int)
	return id, ok
}

// Role returns the authenticated role ("operator" or "customer").
func Role(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleKey).(string)
	return role, ok
}

// Middleware validates the Bearer token and, when role is non-empty, requires
// that role claim.
func Middleware(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			claims, err := parseToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			tokenRole, _ := claims["role"].(string)
			if role != "" && tokenRole != role {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			sub, _ := claims["sub"].(float64)
			ctx := context.WithValue(r.Context(), subjectKey, int(sub))
			ctx = context.WithValue(ctx, roleKey, tokenRole)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseToken(raw string) (jwt.MapClaims, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET not set")
	}
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}
