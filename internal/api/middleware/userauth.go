package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/logan/usecasehub/internal/api/response"
	"github.com/logan/usecasehub/internal/auth"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	emailKey  contextKey = "email"
	roleKey   contextKey = "role"
)

// UserAuth returns middleware that validates the backend-issued access
// token. The token is read from:
//  1. the Authorization: Bearer header
//  2. the access_token query parameter (websocket upgrades cannot set headers)
//
// The raw token stays on the context so outbound calls can forward it.
func UserAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				response.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, tokenStr)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if !claims.Role.Valid() {
				response.Error(w, http.StatusUnauthorized, "invalid token role")
				return
			}

			userID, _ := claims.UserID()
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, emailKey, claims.Email)
			ctx = context.WithValue(ctx, roleKey, claims.Role)
			ctx = auth.WithBearer(ctx, tokenStr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("access_token")
}

// UserIDFromContext returns the authenticated user's ID, or 0 if not set.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 0
}

// EmailFromContext returns the authenticated user's email, or empty string.
func EmailFromContext(ctx context.Context) string {
	if email, ok := ctx.Value(emailKey).(string); ok {
		return email
	}
	return ""
}

// RoleFromContext returns the authenticated user's role, or empty string.
func RoleFromContext(ctx context.Context) auth.Role {
	if role, ok := ctx.Value(roleKey).(auth.Role); ok {
		return role
	}
	return ""
}

// WithIdentity returns ctx carrying an authenticated identity (for testing).
func WithIdentity(ctx context.Context, userID int, role auth.Role) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}
