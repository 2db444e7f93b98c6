package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity aggregate. The exported fields are the current
// in-memory state; nothing is persisted until the store's Create or Update
// is called. The unexported fields hold the username and email as they were
// last loaded from (or written to) storage, so the store can tell a rename
// or clear apart from a no-op and find the rows that actually exist.
type User struct {
	ID                   uuid.UUID
	Username             string
	Email                string
	PasswordHash         string
	SecurityStamp        string
	TwoFactorEnabled     bool
	AccessFailedCount    int
	LockoutEnabled       bool
	LockoutEnd           time.Time
	PhoneNumber          string
	PhoneNumberConfirmed bool
	EmailConfirmed       bool

	loadedUsername string
	loadedEmail    string
}

// NewUser returns an unsaved user with a freshly assigned id. Username and
// email may be empty; the store only maintains the keyed projections for
// non-empty values.
func NewUser(username, email string) *User {
	return &User{
		ID:       uuid.New(),
		Username: username,
		Email:    email,
	}
}

// Snapshot records the current username and email as the persisted baseline.
// The store calls it after every successful load, create, and update;
// callers normally never need to.
func (u *User) Snapshot() {
	u.loadedUsername = u.Username
	u.loadedEmail = u.Email
}

// LoadedUsername reports the username as of the last load or save.
func (u *User) LoadedUsername() string { return u.loadedUsername }

// LoadedEmail reports the email as of the last load or save.
func (u *User) LoadedEmail() string { return u.loadedEmail }

// IsLockedOut reports whether the user is locked out at the given instant.
// A lockout end at or before now means not locked out.
func (u *User) IsLockedOut(now time.Time) bool {
	return u.LockoutEnabled && u.LockoutEnd.After(now)
}

// IncrementAccessFailed bumps the in-memory failed-access counter and
// returns the new value. This is a plain read-modify-write on the entity:
// two processes incrementing concurrently and then persisting will lose one
// of the increments. Callers must persist via Update.
func (u *User) IncrementAccessFailed() int {
	u.AccessFailedCount++
	return u.AccessFailedCount
}

// ResetAccessFailed clears the failed-access counter in memory.
func (u *User) ResetAccessFailed() {
	u.AccessFailedCount = 0
}
