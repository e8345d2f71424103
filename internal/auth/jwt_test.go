package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestRoundTrip(t *testing.T) {
	secret := "test-secret-key"
	token, err := GenerateToken(secret, 1, "test@example.com", RoleMaintainer, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	uid, _ := claims.UserID()
	if uid != 1 {
		t.Errorf("user_id = %d, want 1", uid)
	}
	if claims.Email != "test@example.com" {
		t.Errorf("email = %s, want test@example.com", claims.Email)
	}
	if claims.Role != RoleMaintainer {
		t.Errorf("role = %s, want maintainer", claims.Role)
	}
}

func TestExpiredToken(t *testing.T) {
	secret := "test-secret-key"
	token, err := GenerateToken(secret, 1, "test@example.com", RoleReader, -time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = ValidateToken(secret, token)
	if err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestTamperedToken(t *testing.T) {
	secret := "test-secret-key"
	token, err := GenerateToken(secret, 1, "test@example.com", RoleReader, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = ValidateToken(secret, token+"x")
	if err == nil {
		t.Fatal("expected error for tampered token")
	}
}

func TestWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret1", 1, "test@example.com", RoleReader, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = ValidateToken("secret2", token)
	if err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestNonNumericSubjectRejected(t *testing.T) {
	secret := "test-secret-key"
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ValidateToken(secret, signed); err == nil {
		t.Fatal("expected error for non-numeric subject")
	}
}

func TestRoleAtLeast(t *testing.T) {
	cases := []struct {
		role, min Role
		want      bool
	}{
		{RoleAdmin, RoleMaintainer, true},
		{RoleMaintainer, RoleMaintainer, true},
		{RoleReader, RoleMaintainer, false},
		{Role("guest"), RoleReader, false},
	}
	for _, tc := range cases {
		if got := tc.role.AtLeast(tc.min); got != tc.want {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", tc.role, tc.min, got, tc.want)
		}
	}
}

func TestBearerContext(t *testing.T) {
	if got := BearerFromContext(context.Background()); got != "" {
		t.Errorf("expected empty token, got %q", got)
	}
	ctx := WithBearer(context.Background(), "abc")
	if got := BearerFromContext(ctx); got != "abc" {
		t.Errorf("token = %q, want abc", got)
	}
}
