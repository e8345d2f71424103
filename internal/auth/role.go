package auth

import "context"

// Role is a user's access level. Levels are ordered reader < maintainer < admin.
type Role string

const (
	RoleReader     Role = "reader"
	RoleMaintainer Role = "maintainer"
	RoleAdmin      Role = "admin"
)

var roleLevel = map[Role]int{
	RoleReader:     0,
	RoleMaintainer: 1,
	RoleAdmin:      2,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleLevel[r]
	return ok
}

// AtLeast reports whether r grants everything min grants. Unknown roles grant nothing.
func (r Role) AtLeast(min Role) bool {
	lvl, ok := roleLevel[r]
	if !ok {
		return false
	}
	return lvl >= roleLevel[min]
}

type bearerKey struct{}

// WithBearer returns a context carrying the caller's raw access token so
// outbound requests can forward it.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

// BearerFromContext returns the forwarded access token, or "".
func BearerFromContext(ctx context.Context) string {
	if tok, ok := ctx.Value(bearerKey{}).(string); ok {
		return tok
	}
	return ""
}
