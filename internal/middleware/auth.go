package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/basicauth/basicauth-go/internal/crypto"
	"github.com/basicauth/basicauth-go/internal/model"
)

type contextKey string

const userIDKey contextKey = "userID"

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	Validate(token string) (*crypto.Claims, error)
}

// BearerAuth returns middleware that requires `Authorization: Bearer <token>`.
// A header carrying the scheme but no token ("Bearer ") is rejected as
// unauthorized by the server, never by the client.
func BearerAuth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			// net/http trims header values, so "Bearer " arrives as "Bearer".
			scheme, token, _ := strings.Cut(authHeader, " ")
			token = strings.TrimSpace(token)
			if scheme != "Bearer" || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: msg})
}
