package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot_TracksLoadedKeys(t *testing.T) {
	u := NewUser("alice", "alice@test.com")
	assert.Empty(t, u.LoadedUsername())
	assert.Empty(t, u.LoadedEmail())

	u.Snapshot()
	assert.Equal(t, "alice", u.LoadedUsername())
	assert.Equal(t, "alice@test.com", u.LoadedEmail())

	// Mutations leave the baseline alone until the next snapshot.
	u.Username = "bob"
	u.Email = ""
	assert.Equal(t, "alice", u.LoadedUsername())
	assert.Equal(t, "alice@test.com", u.LoadedEmail())

	u.Snapshot()
	assert.Equal(t, "bob", u.LoadedUsername())
	assert.Empty(t, u.LoadedEmail())
}

func TestIsLockedOut(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		enabled    bool
		end        time.Time
		wantLocked bool
	}{
		{"disabled with future end", false, now.Add(time.Hour), false},
		{"enabled with future end", true, now.Add(time.Hour), true},
		{"enabled with past end", true, now.Add(-time.Hour), false},
		{"enabled with end exactly now", true, now, false},
		{"enabled with zero end", true, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := User{LockoutEnabled: tt.enabled, LockoutEnd: tt.end}
			assert.Equal(t, tt.wantLocked, u.IsLockedOut(now))
		})
	}
}

func TestAccessFailedCounter(t *testing.T) {
	u := NewUser("alice", "")

	assert.Equal(t, 1, u.IncrementAccessFailed())
	assert.Equal(t, 2, u.IncrementAccessFailed())
	assert.Equal(t, 2, u.AccessFailedCount)

	u.ResetAccessFailed()
	assert.Zero(t, u.AccessFailedCount)
}

func TestNewUser_AssignsID(t *testing.T) {
	a := NewUser("alice", "")
	b := NewUser("bob", "")

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEmpty(t, a.ID)
}
