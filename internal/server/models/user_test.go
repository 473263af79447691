package models

import (
	"testing"
	"time"
)

func boolPtr(b bool) *bool { return &b }

func TestResolveRole(t *testing.T) {
	t.Parallel()

	if got := ResolveRole(""); got != DefaultRole {
		t.Fatalf("empty role: got %q want %q", got, DefaultRole)
	}
	if got := ResolveRole("admin"); got != "admin" {
		t.Fatalf("explicit role: got %q want %q", got, "admin")
	}
}

func TestResolveActive(t *testing.T) {
	t.Parallel()

	if !ResolveActive(nil) {
		t.Fatalf("absent flag should default to active")
	}
	if ResolveActive(boolPtr(false)) {
		t.Fatalf("explicit false must not be overridden")
	}
	if !ResolveActive(boolPtr(true)) {
		t.Fatalf("explicit true should stay true")
	}
}

func TestUser_Public_AppliesDefaultsAndHidesHash(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	u := &User{
		UserID:       "u-1",
		Name:         "Ann",
		Email:        "a@x.com",
		PasswordHash: "$2a$10$abcdef",
		CreatedAt:    created,
	}

	pub := u.Public()

	if pub.Role != DefaultRole {
		t.Fatalf("role: got %q want %q", pub.Role, DefaultRole)
	}
	if !pub.IsActive {
		t.Fatalf("isActive should default to true")
	}
	if pub.UserID != "u-1" || pub.Name != "Ann" || pub.Email != "a@x.com" {
		t.Fatalf("unexpected projection: %+v", pub)
	}
	if !pub.CreatedAt.Equal(created) {
		t.Fatalf("createdAt: got %v want %v", pub.CreatedAt, created)
	}
}
