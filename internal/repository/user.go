package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/google/uuid"

	"github.com/prolucid/identity-cassandra/internal/domain"
)

// UserStore keeps the three user projections, the two login projections, and
// the claims table consistent. Every multi-statement write goes out as one
// logged batch, so within a single call the projections move together; there
// is no coordination across concurrent calls and no uniqueness check on
// username or email.
type UserStore struct {
	session *gocql.Session
	stmts   *statements
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{session: db.session, stmts: db.stmts}
}

// Create writes the by-id projection plus the by-username and by-email
// projections for whichever of those keys are non-empty, atomically.
func (s *UserStore) Create(ctx context.Context, u *domain.User) error {
	if u == nil {
		return fmt.Errorf("Create: %w", domain.ErrNilUser)
	}
	if u.ID == uuid.Nil {
		return fmt.Errorf("Create: %w", domain.ErrMissingID)
	}

	if err := s.executeBatch(ctx, s.planCreate(u)); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	u.Snapshot()
	return nil
}

// Update refreshes the by-id projection in place and reconciles the keyed
// projections against the values the user was loaded with: an unchanged key
// is updated in place, a changed or cleared key has its old row deleted and
// (for a non-empty new value) a new row inserted. One logged batch.
func (s *UserStore) Update(ctx context.Context, u *domain.User) error {
	if u == nil {
		return fmt.Errorf("Update: %w", domain.ErrNilUser)
	}
	if u.ID == uuid.Nil {
		return fmt.Errorf("Update: %w", domain.ErrMissingID)
	}

	if err := s.executeBatch(ctx, s.planUpdate(u)); err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	u.Snapshot()
	return nil
}

// Delete removes every projection that exists in storage. The keyed
// projections are addressed by the as-loaded username and email, not the
// current in-memory values, so an unsaved rename cannot orphan a row.
func (s *UserStore) Delete(ctx context.Context, u *domain.User) error {
	if u == nil {
		return fmt.Errorf("Delete: %w", domain.ErrNilUser)
	}
	if u.ID == uuid.Nil {
		return fmt.Errorf("Delete: %w", domain.ErrMissingID)
	}

	if err := s.executeBatch(ctx, s.planDelete(u)); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

func (s *UserStore) planCreate(u *domain.User) []stmt {
	plan := []stmt{{s.stmts.insertUser, append([]any{gocql.UUID(u.ID), u.Username, u.Email}, userData(u)...)}}
	plan = append(plan, s.usernameProjection(u).reconcile("", u.Username)...)
	plan = append(plan, s.emailProjection(u).reconcile("", u.Email)...)
	return plan
}

func (s *UserStore) planUpdate(u *domain.User) []stmt {
	args := append([]any{u.Username, u.Email}, userData(u)...)
	plan := []stmt{{s.stmts.updateUser, append(args, gocql.UUID(u.ID))}}
	plan = append(plan, s.usernameProjection(u).reconcile(u.LoadedUsername(), u.Username)...)
	plan = append(plan, s.emailProjection(u).reconcile(u.LoadedEmail(), u.Email)...)
	return plan
}

func (s *UserStore) planDelete(u *domain.User) []stmt {
	plan := []stmt{{s.stmts.deleteUser, []any{gocql.UUID(u.ID)}}}
	plan = append(plan, s.usernameProjection(u).drop(u.LoadedUsername())...)
	plan = append(plan, s.emailProjection(u).drop(u.LoadedEmail())...)
	return plan
}

func (s *UserStore) usernameProjection(u *domain.User) projection {
	return projection{
		insert: s.stmts.insertUserByUsername,
		update: s.stmts.updateUserByUsername,
		remove: s.stmts.deleteUserByUsername,
		insertArgs: func(key string) []any {
			return append([]any{key, gocql.UUID(u.ID), u.Email}, userData(u)...)
		},
		updateArgs: func(key string) []any {
			return append(append([]any{u.Email}, userData(u)...), key)
		},
	}
}

func (s *UserStore) emailProjection(u *domain.User) projection {
	return projection{
		insert: s.stmts.insertUserByEmail,
		update: s.stmts.updateUserByEmail,
		remove: s.stmts.deleteUserByEmail,
		insertArgs: func(key string) []any {
			return append([]any{key, gocql.UUID(u.ID), u.Username}, userData(u)...)
		},
		updateArgs: func(key string) []any {
			return append(append([]any{u.Username}, userData(u)...), key)
		},
	}
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrMissingID)
	}
	u, err := scanUser(s.session.Query(s.stmts.selectUser, gocql.UUID(id)).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("GetByUsername: %w", domain.ErrBlankKey)
	}
	u, err := scanUser(s.session.Query(s.stmts.selectUserByUsername, username).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("GetByUsername: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("GetByEmail: %w", domain.ErrBlankKey)
	}
	u, err := scanUser(s.session.Query(s.stmts.selectUserByEmail, email).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("GetByEmail: %w", err)
	}
	return u, nil
}

// GetByLogin resolves the owning user of an external (provider, key) pair:
// one read against the reverse-lookup table for the id, then the by-id read.
func (s *UserStore) GetByLogin(ctx context.Context, provider, providerKey string) (*domain.User, error) {
	if strings.TrimSpace(provider) == "" || strings.TrimSpace(providerKey) == "" {
		return nil, fmt.Errorf("GetByLogin: %w", domain.ErrBlankKey)
	}

	var id gocql.UUID
	err := s.session.Query(s.stmts.selectLoginByProvider, provider, providerKey).
		WithContext(ctx).Scan(&id)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, fmt.Errorf("GetByLogin: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByLogin: %w", err)
	}

	return s.GetByID(ctx, uuid.UUID(id))
}

// AddLogin writes both login projections in one logged batch. A second add
// for the same (provider, key) pair silently overwrites the reverse-lookup
// owner; no uniqueness check is made.
func (s *UserStore) AddLogin(ctx context.Context, login domain.Login) error {
	if login.UserID == uuid.Nil {
		return fmt.Errorf("AddLogin: %w", domain.ErrMissingID)
	}
	if strings.TrimSpace(login.Provider) == "" || strings.TrimSpace(login.ProviderKey) == "" {
		return fmt.Errorf("AddLogin: %w", domain.ErrBlankKey)
	}

	plan := []stmt{
		{s.stmts.insertLogin, []any{gocql.UUID(login.UserID), login.Provider, login.ProviderKey}},
		{s.stmts.insertLoginByProvider, []any{login.Provider, login.ProviderKey, gocql.UUID(login.UserID)}},
	}
	if err := s.executeBatch(ctx, plan); err != nil {
		return fmt.Errorf("AddLogin: %w", err)
	}
	return nil
}

// RemoveLogin deletes both login projections in one logged batch.
func (s *UserStore) RemoveLogin(ctx context.Context, login domain.Login) error {
	if login.UserID == uuid.Nil {
		return fmt.Errorf("RemoveLogin: %w", domain.ErrMissingID)
	}
	if strings.TrimSpace(login.Provider) == "" || strings.TrimSpace(login.ProviderKey) == "" {
		return fmt.Errorf("RemoveLogin: %w", domain.ErrBlankKey)
	}

	plan := []stmt{
		{s.stmts.deleteLogin, []any{gocql.UUID(login.UserID), login.Provider, login.ProviderKey}},
		{s.stmts.deleteLoginByProvider, []any{login.Provider, login.ProviderKey}},
	}
	if err := s.executeBatch(ctx, plan); err != nil {
		return fmt.Errorf("RemoveLogin: %w", err)
	}
	return nil
}

func (s *UserStore) ListLogins(ctx context.Context, userID uuid.UUID) ([]domain.Login, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("ListLogins: %w", domain.ErrMissingID)
	}

	iter := s.session.Query(s.stmts.selectLoginsByUser, gocql.UUID(userID)).WithContext(ctx).Iter()

	var logins []domain.Login
	var id gocql.UUID
	var provider, key string
	for iter.Scan(&id, &provider, &key) {
		logins = append(logins, domain.Login{UserID: uuid.UUID(id), Provider: provider, ProviderKey: key})
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("ListLogins: %w", err)
	}
	return logins, nil
}

// AddClaim writes a single row keyed by (id, type, value); adding the same
// claim twice collapses onto one row.
func (s *UserStore) AddClaim(ctx context.Context, claim domain.Claim) error {
	if claim.UserID == uuid.Nil {
		return fmt.Errorf("AddClaim: %w", domain.ErrMissingID)
	}

	err := s.session.Query(s.stmts.insertClaim, gocql.UUID(claim.UserID), claim.Type, claim.Value).
		WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("AddClaim: %w", err)
	}
	return nil
}

func (s *UserStore) RemoveClaim(ctx context.Context, claim domain.Claim) error {
	if claim.UserID == uuid.Nil {
		return fmt.Errorf("RemoveClaim: %w", domain.ErrMissingID)
	}

	err := s.session.Query(s.stmts.deleteClaim, gocql.UUID(claim.UserID), claim.Type, claim.Value).
		WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("RemoveClaim: %w", err)
	}
	return nil
}

func (s *UserStore) ListClaims(ctx context.Context, userID uuid.UUID) ([]domain.Claim, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("ListClaims: %w", domain.ErrMissingID)
	}

	iter := s.session.Query(s.stmts.selectClaimsByUser, gocql.UUID(userID)).WithContext(ctx).Iter()

	var claims []domain.Claim
	var id gocql.UUID
	var typ, value string
	for iter.Scan(&id, &typ, &value) {
		claims = append(claims, domain.Claim{UserID: uuid.UUID(id), Type: typ, Value: value})
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("ListClaims: %w", err)
	}
	return claims, nil
}

func (s *UserStore) executeBatch(ctx context.Context, plan []stmt) error {
	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	for _, st := range plan {
		batch.Query(st.cql, st.args...)
	}
	return s.session.ExecuteBatch(batch)
}

// userData returns the mutable user columns in the canonical order of
// userDataColumns.
func userData(u *domain.User) []any {
	return []any{
		u.PasswordHash, u.SecurityStamp, u.TwoFactorEnabled, u.AccessFailedCount,
		u.LockoutEnabled, u.LockoutEnd, u.PhoneNumber, u.PhoneNumberConfirmed, u.EmailConfirmed,
	}
}

// The user SELECTs all project the same column order regardless of table, so
// one scan covers every lookup.
func scanUser(q *gocql.Query) (*domain.User, error) {
	var u domain.User
	var id gocql.UUID
	err := q.Scan(
		&id, &u.Username, &u.Email,
		&u.PasswordHash, &u.SecurityStamp, &u.TwoFactorEnabled, &u.AccessFailedCount,
		&u.LockoutEnabled, &u.LockoutEnd, &u.PhoneNumber, &u.PhoneNumberConfirmed, &u.EmailConfirmed,
	)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.ID = uuid.UUID(id)
	u.Snapshot()
	return &u, nil
}
