package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/prolucid/identity-cassandra/internal/domain"
)

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Identity layers account-manager behavior over the store: password hashing,
// security-stamp rotation, and lockout bookkeeping. The store itself never
// sees a plaintext password.
type Identity struct {
	users           userStore
	maxAccessFailed int
	lockoutWindow   time.Duration
	now             func() time.Time
}

func NewIdentity(users userStore, maxAccessFailed int, lockoutWindow time.Duration) *Identity {
	return &Identity{
		users:           users,
		maxAccessFailed: maxAccessFailed,
		lockoutWindow:   lockoutWindow,
		now:             time.Now,
	}
}

type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// Register creates a new user with a hashed password, a fresh security
// stamp, and lockout enabled. Username and email uniqueness is not checked;
// a concurrent registration with the same username or email last-writes-wins
// on the keyed projections.
func (s *Identity) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("Register: hash password: %w", err)
	}

	u := domain.NewUser(req.Username, req.Email)
	u.PasswordHash = string(hash)
	u.SecurityStamp = uuid.NewString()
	u.LockoutEnabled = true

	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}
	return u, nil
}

// Authenticate resolves a user by username or email, rejects locked-out
// accounts, and checks the password. A failed check increments the
// access-failed counter and, past the threshold, starts a lockout window;
// a passed check clears the counter. Counter updates are read-modify-write
// on the loaded entity, so concurrent failures may undercount.
func (s *Identity) Authenticate(ctx context.Context, usernameOrEmail, password string) (*domain.User, error) {
	u, err := s.lookup(ctx, usernameOrEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Authenticate: %w", domain.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("Authenticate: %w", err)
	}

	now := s.now()
	if u.IsLockedOut(now) {
		return nil, fmt.Errorf("Authenticate: %w", domain.ErrLockedOut)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if u.LockoutEnabled {
			if u.IncrementAccessFailed() >= s.maxAccessFailed {
				u.LockoutEnd = now.Add(s.lockoutWindow)
				u.ResetAccessFailed()
			}
			if err := s.users.Update(ctx, u); err != nil {
				return nil, fmt.Errorf("Authenticate: record failure: %w", err)
			}
		}
		return nil, fmt.Errorf("Authenticate: %w", domain.ErrInvalidCredentials)
	}

	if u.AccessFailedCount > 0 {
		u.ResetAccessFailed()
		if err := s.users.Update(ctx, u); err != nil {
			return nil, fmt.Errorf("Authenticate: reset counter: %w", err)
		}
	}
	return u, nil
}

// ChangePassword sets a new hash and rotates the security stamp, so tokens
// minted against the old stamp can be invalidated by the framework.
func (s *Identity) ChangePassword(ctx context.Context, u *domain.User, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("ChangePassword: hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.SecurityStamp = uuid.NewString()

	if err := s.users.Update(ctx, u); err != nil {
		return fmt.Errorf("ChangePassword: %w", err)
	}
	return nil
}

// UpdateProfile applies a username or email change. An empty new value
// clears that field; the store reconciles the keyed projections.
func (s *Identity) UpdateProfile(ctx context.Context, u *domain.User, username, email string) error {
	u.Username = username
	if email != u.Email {
		u.Email = email
		u.EmailConfirmed = false
	}

	if err := s.users.Update(ctx, u); err != nil {
		return fmt.Errorf("UpdateProfile: %w", err)
	}
	return nil
}

// SetTwoFactor toggles the two-factor flag and persists.
func (s *Identity) SetTwoFactor(ctx context.Context, u *domain.User, enabled bool) error {
	u.TwoFactorEnabled = enabled
	if err := s.users.Update(ctx, u); err != nil {
		return fmt.Errorf("SetTwoFactor: %w", err)
	}
	return nil
}

// Deactivate removes the account and every projection of it.
func (s *Identity) Deactivate(ctx context.Context, u *domain.User) error {
	if err := s.users.Delete(ctx, u); err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	return nil
}

func (s *Identity) lookup(ctx context.Context, usernameOrEmail string) (*domain.User, error) {
	u, err := s.users.GetByUsername(ctx, usernameOrEmail)
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return u, err
	}
	return s.users.GetByEmail(ctx, usernameOrEmail)
}
