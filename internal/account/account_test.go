package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logan/usecasehub/internal/auth"
	"github.com/logan/usecasehub/internal/restclient"
)

func setupRoster(t *testing.T, patchStatus int) *Roster {
	t.Helper()
	users := []User{
		{ID: 1, Email: "admin@example.com", Role: auth.RoleAdmin, IsActive: true},
		{ID: 2, Email: "reader@example.com", Role: auth.RoleReader, IsActive: true},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/auth/users":
			json.NewEncoder(w).Encode(users)
		case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/auth/users/"):
			if patchStatus != http.StatusOK {
				w.WriteHeader(patchStatus)
				w.Write([]byte(`{"detail":"Cannot change own role"}`))
				return
			}
			var body struct {
				Role auth.Role `json:"role"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			u := users[1]
			u.Role = body.Role
			json.NewEncoder(w).Encode(u)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	roster := NewRoster(NewClient(restclient.New(srv.URL)))
	require.NoError(t, roster.Load(context.Background()))
	return roster
}

func TestSetRoleConfirmed(t *testing.T) {
	r := setupRoster(t, http.StatusOK)

	require.NoError(t, r.SetRole(context.Background(), 2, auth.RoleMaintainer))
	require.Equal(t, auth.RoleMaintainer, r.Users()[1].Role)
}

func TestSetRoleRollsBack(t *testing.T) {
	r := setupRoster(t, http.StatusBadRequest)

	err := r.SetRole(context.Background(), 2, auth.RoleAdmin)
	require.True(t, restclient.IsStatus(err, http.StatusBadRequest))
	require.Equal(t, "Cannot change own role", restclient.Reason(err))
	require.Equal(t, auth.RoleReader, r.Users()[1].Role)
}

func TestSetRoleValidation(t *testing.T) {
	r := setupRoster(t, http.StatusOK)

	require.ErrorIs(t, r.SetRole(context.Background(), 2, auth.Role("owner")), ErrUnknownRole)
	require.ErrorIs(t, r.SetRole(context.Background(), 42, auth.RoleAdmin), ErrUserNotFound)
}

func TestRemove(t *testing.T) {
	r := setupRoster(t, http.StatusOK)

	require.NoError(t, r.Remove(context.Background(), 2))
	require.Len(t, r.Users(), 1)
	require.Equal(t, 1, r.Users()[0].ID)
}
