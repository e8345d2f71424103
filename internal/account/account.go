// Package account manages backend users and their roles.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/logan/usecasehub/internal/auth"
	"github.com/logan/usecasehub/internal/optimistic"
	"github.com/logan/usecasehub/internal/restclient"
)

var (
	ErrUnknownRole  = errors.New("unknown role")
	ErrUserNotFound = errors.New("user not found")
)

// User is a backend account.
type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Client talks to the backend's /auth/users resource.
type Client struct {
	rc *restclient.Client
}

func NewClient(rc *restclient.Client) *Client {
	return &Client{rc: rc}
}

// ListUsers returns every account. Admin only on the backend.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.rc.Do(ctx, http.MethodGet, "/auth/users", nil, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateRole changes a user's role.
func (c *Client) UpdateRole(ctx context.Context, userID int, role auth.Role) (*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	body := map[string]auth.Role{"role": role}
	var u User
	if err := c.rc.Do(ctx, http.MethodPatch, fmt.Sprintf("/auth/users/%d", userID), body, &u); err != nil {
		return nil, fmt.Errorf("update role of user %d: %w", userID, err)
	}
	return &u, nil
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, userID int) error {
	if err := c.rc.Do(ctx, http.MethodDelete, fmt.Sprintf("/auth/users/%d", userID), nil, nil); err != nil {
		return fmt.Errorf("delete user %d: %w", userID, err)
	}
	return nil
}

// Roster is the user management view. Role changes are shown before the
// backend confirms them and rolled back if it refuses.
type Roster struct {
	client *Client
	users  *optimistic.Value[[]User]
}

func NewRoster(client *Client) *Roster {
	return &Roster{client: client, users: optimistic.NewValue[[]User](nil)}
}

// Users returns a copy of the displayed users.
func (r *Roster) Users() []User {
	return append([]User(nil), r.users.Get()...)
}

// Load fetches the user list.
func (r *Roster) Load(ctx context.Context) error {
	users, err := r.client.ListUsers(ctx)
	if err != nil {
		return err
	}
	r.users.Set(users)
	return nil
}

// SetRole changes one user's role optimistically.
func (r *Roster) SetRole(ctx context.Context, userID int, role auth.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	current := r.users.Get()
	next := make([]User, len(current))
	copy(next, current)
	idx := -1
	for i := range next {
		if next[i].ID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	next[idx].Role = role

	_, err := r.users.Apply(ctx, next, func(ctx context.Context) ([]User, error) {
		updated, err := r.client.UpdateRole(ctx, userID, role)
		if err != nil {
			return nil, err
		}
		confirmed := make([]User, len(next))
		copy(confirmed, next)
		confirmed[idx] = *updated
		return confirmed, nil
	})
	return err
}

// Remove deletes a user and drops it from the roster on success.
func (r *Roster) Remove(ctx context.Context, userID int) error {
	if err := r.client.DeleteUser(ctx, userID); err != nil {
		return err
	}
	current := r.users.Get()
	kept := make([]User, 0, len(current))
	for _, u := range current {
		if u.ID != userID {
			kept = append(kept, u)
		}
	}
	r.users.Set(kept)
	return nil
}
