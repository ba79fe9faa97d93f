package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

// Context keys under which the authenticated identity is stored.
const (
	UserIDKey   contextKey = "user_id"
	UserNameKey contextKey = "user_name"
)

// TokenValidator is what the auth middleware needs from the user service.
// The interface keeps this package decoupled from the user package.
type TokenValidator interface {
	ValidateToken(tokenString string) (string, string, error)
}

// AuthMiddleware rejects requests without a valid bearer token and injects
// the caller's identity into the request context.
type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(v TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: v}
}

func (am *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""

		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 {
				tokenString = parts[1]
			}
		}

		// Fallback for clients that cannot set headers
		if tokenString == "" {
			tokenString = r.URL.Query().Get("token")
		}

		if tokenString == "" {
			RespondError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		userID, name, err := am.validator.ValidateToken(tokenString)
		if err != nil {
			RespondError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = context.WithValue(ctx, UserNameKey, name)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID extracts the authenticated user id from a request context.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok
}
