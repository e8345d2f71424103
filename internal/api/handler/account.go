package handler

import (
	"encoding/json"
	"net/http"

	"github.com/logan/usecasehub/internal/account"
	"github.com/logan/usecasehub/internal/api/middleware"
	"github.com/logan/usecasehub/internal/api/response"
	"github.com/logan/usecasehub/internal/auth"
)

// AccountHandler holds handlers for the caller's identity and user roles.
type AccountHandler struct {
	accounts *account.Client
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts *account.Client) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Me handles GET /auth/me and returns the identity carried by the token.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	response.JSON(w, http.StatusOK, map[string]any{
		"user_id": middleware.UserIDFromContext(ctx),
		"email":   middleware.EmailFromContext(ctx),
		"role":    middleware.RoleFromContext(ctx),
	})
}

// ListUsers handles GET /auth/users
func (h *AccountHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, users)
}

type roleRequest struct {
	Role auth.Role `json:"role"`
}

// UpdateRole handles PATCH /auth/users/{id}
func (h *AccountHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		response.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.accounts.UpdateRole(r.Context(), id, req.Role)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.Logger(r.Context()).Info("user role changed",
		"target_user_id", id, "role", u.Role, "by", middleware.UserIDFromContext(r.Context()))
	response.JSON(w, http.StatusOK, u)
}
