package middleware

import (
	"net/http"

	"github.com/logan/usecasehub/internal/api/response"
	"github.com/logan/usecasehub/internal/auth"
)

// RequireRole returns middleware that admits only users whose role is at
// least min. It must run after UserAuth.
func RequireRole(min auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" {
				response.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !role.AtLeast(min) {
				response.Error(w, http.StatusForbidden, "not enough permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
