package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/prolucid/identity-cassandra/internal/domain"
	"github.com/prolucid/identity-cassandra/internal/repository"
)

const TestPassword = "password123"

// SeedTestUser creates and persists a user with the given keys and a known
// password hash.
func SeedTestUser(t *testing.T, users *repository.UserStore, username, email string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	u := domain.NewUser(username, email)
	u.PasswordHash = string(hash)
	u.SecurityStamp = uuid.NewString()
	u.LockoutEnabled = true

	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedTestRole creates and persists a role.
func SeedTestRole(t *testing.T, roles *repository.RoleStore, name string) *domain.Role {
	t.Helper()

	role := domain.NewRole(name)
	if err := roles.Create(context.Background(), role); err != nil {
		t.Fatalf("seed role: %v", err)
	}
	return role
}
