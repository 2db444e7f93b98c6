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

// RoleStore maintains the role aggregate: the same diff-and-batch scheme as
// UserStore with a single keyed dimension (name).
type RoleStore struct {
	session *gocql.Session
	stmts   *statements
}

func NewRoleStore(db *DB) *RoleStore {
	return &RoleStore{session: db.session, stmts: db.stmts}
}

func (s *RoleStore) Create(ctx context.Context, role *domain.Role) error {
	if role == nil {
		return fmt.Errorf("Create: %w", domain.ErrNilRole)
	}
	if role.ID == uuid.Nil {
		return fmt.Errorf("Create: %w", domain.ErrMissingID)
	}

	plan := []stmt{{s.stmts.insertRole, []any{gocql.UUID(role.ID), role.Name}}}
	plan = append(plan, s.nameProjection(role).reconcile("", role.Name)...)
	if err := s.executeBatch(ctx, plan); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	role.Snapshot()
	return nil
}

func (s *RoleStore) Update(ctx context.Context, role *domain.Role) error {
	if role == nil {
		return fmt.Errorf("Update: %w", domain.ErrNilRole)
	}
	if role.ID == uuid.Nil {
		return fmt.Errorf("Update: %w", domain.ErrMissingID)
	}

	plan := []stmt{{s.stmts.updateRole, []any{role.Name, gocql.UUID(role.ID)}}}
	plan = append(plan, s.nameProjection(role).reconcile(role.LoadedName(), role.Name)...)
	if err := s.executeBatch(ctx, plan); err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	role.Snapshot()
	return nil
}

func (s *RoleStore) Delete(ctx context.Context, role *domain.Role) error {
	if role == nil {
		return fmt.Errorf("Delete: %w", domain.ErrNilRole)
	}
	if role.ID == uuid.Nil {
		return fmt.Errorf("Delete: %w", domain.ErrMissingID)
	}

	plan := []stmt{{s.stmts.deleteRole, []any{gocql.UUID(role.ID)}}}
	plan = append(plan, s.nameProjection(role).drop(role.LoadedName())...)
	if err := s.executeBatch(ctx, plan); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}

func (s *RoleStore) nameProjection(role *domain.Role) projection {
	return projection{
		insert: s.stmts.insertRoleByName,
		update: s.stmts.insertRoleByName,
		remove: s.stmts.deleteRoleByName,
		insertArgs: func(key string) []any {
			return []any{key, gocql.UUID(role.ID)}
		},
		// The by-name row has no mutable columns besides id, which never
		// changes; the in-place refresh is an upsert of the same values.
		updateArgs: func(key string) []any {
			return []any{key, gocql.UUID(role.ID)}
		},
	}
}

func (s *RoleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Role, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrMissingID)
	}
	role, err := scanRole(s.session.Query(s.stmts.selectRole, gocql.UUID(id)).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return role, nil
}

func (s *RoleStore) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("GetByName: %w", domain.ErrBlankKey)
	}
	role, err := scanRole(s.session.Query(s.stmts.selectRoleByName, name).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("GetByName: %w", err)
	}
	return role, nil
}

func (s *RoleStore) executeBatch(ctx context.Context, plan []stmt) error {
	batch := s.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	for _, st := range plan {
		batch.Query(st.cql, st.args...)
	}
	return s.session.ExecuteBatch(batch)
}

func scanRole(q *gocql.Query) (*domain.Role, error) {
	var role domain.Role
	var id gocql.UUID
	if err := q.Scan(&id, &role.Name); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	role.ID = uuid.UUID(id)
	role.Snapshot()
	return &role, nil
}
