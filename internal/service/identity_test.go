package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prolucid/identity-cassandra/internal/domain"
)

// fakeStore is an in-memory userStore that mimics the adapter's contract:
// lookups hand back snapshotted copies, never shared pointers.
type fakeStore struct {
	users map[uuid.UUID]domain.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[uuid.UUID]domain.User)}
}

func (f *fakeStore) Create(_ context.Context, u *domain.User) error {
	u.Snapshot()
	f.users[u.ID] = *u
	return nil
}

func (f *fakeStore) Update(_ context.Context, u *domain.User) error {
	u.Snapshot()
	f.users[u.ID] = *u
	return nil
}

func (f *fakeStore) Delete(_ context.Context, u *domain.User) error {
	delete(f.users, u.ID)
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.Snapshot()
	return &u, nil
}

func (f *fakeStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			u.Snapshot()
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			u.Snapshot()
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func newTestIdentity(store *fakeStore) *Identity {
	return NewIdentity(store, 3, 15*time.Minute)
}

func TestRegister(t *testing.T) {
	store := newFakeStore()
	svc := newTestIdentity(store)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterRequest{
		Username: "alice",
		Email:    "alice@test.com",
		Password: "hunter22",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.NotEmpty(t, u.SecurityStamp)
	assert.NotEqual(t, "hunter22", u.PasswordHash)
	assert.True(t, u.LockoutEnabled)

	stored, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)
}

func TestAuthenticate_Success(t *testing.T) {
	store := newFakeStore()
	svc := newTestIdentity(store)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, reg.ID, u.ID)
}

func TestAuthenticate_ByEmail(t *testing.T) {
	store := newFakeStore()
	svc := newTestIdentity(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "alice@test.com", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "alice@test.com", "hunter22")
	assert.NoError(t, err)
}

func TestAuthenticate_UnknownUser(t *testing.T) {
	svc := newTestIdentity(newFakeStore())

	_, err := svc.Authenticate(context.Background(), "nobody", "whatever")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthenticate_WrongPasswordCountsFailures(t *testing.T) {
	store := newFakeStore()
	svc := newTestIdentity(store)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	stored, err := store.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.AccessFailedCount)
}

func TestAuthenticate_LockoutAfterThreshold(t *testing.T) {
	store := newFakeStore()
	svc := newTestIdentity(store)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	for range 3 {
		_, err = svc.Authenticate(ctx, "alice", "wrong")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}

	stored, err := store.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsLockedOut(time.Now()))
	assert.Zero(t, stored.AccessFailedCount)

	// Even the right password is rejected while the window is open.
	_, err = svc.Authenticate(ctx, "alice", "hunter22")
	assert.ErrorIs(t, err, domain.ErrLockedOut)
}

func TestAuthenticate_ExpiredLockoutAdmits(t *testing.T) {
	store := newFakeStore()
	svc := newTestIdentity(store)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	for range 3 {
		_, _ = svc.Authenticate(ctx, "alice", "wrong")
	}

	svc.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	u, err := svc.Authenticate(ctx, "alice", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, reg.ID, u.ID)
}

func TestAuthenticate_SuccessResetsCounter(t *testing.T) {
	store := newFakeStore()
	svc := newTestIdentity(store)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	_, _ = svc.Authenticate(ctx, "alice", "wrong")
	_, err = svc.Authenticate(ctx, "alice", "hunter22")
	require.NoError(t, err)

	stored, err := store.GetByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.AccessFailedCount)
}

func TestChangePassword_RotatesStamp(t *testing.T) {
	store := newFakeStore()
	svc := newTestIdentity(store)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)
	oldStamp := u.SecurityStamp
	oldHash := u.PasswordHash

	require.NoError(t, svc.ChangePassword(ctx, u, "correct horse"))

	assert.NotEqual(t, oldStamp, u.SecurityStamp)
	assert.NotEqual(t, oldHash, u.PasswordHash)

	_, err = svc.Authenticate(ctx, "alice", "correct horse")
	assert.NoError(t, err)
}

func TestUpdateProfile_EmailChangeDropsConfirmation(t *testing.T) {
	store := newFakeStore()
	svc := newTestIdentity(store)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterRequest{Username: "alice", Email: "alice@test.com", Password: "hunter22"})
	require.NoError(t, err)
	u.EmailConfirmed = true
	require.NoError(t, store.Update(ctx, u))

	require.NoError(t, svc.UpdateProfile(ctx, u, "alice", "new@test.com"))

	stored, err := store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@test.com", stored.Email)
	assert.False(t, stored.EmailConfirmed)
}
