package domain

import "github.com/google/uuid"

// Role is the user aggregate's smaller sibling: one denormalized dimension
// (name) instead of two, with the same load-time baseline for rename
// detection.
type Role struct {
	ID   uuid.UUID
	Name string

	loadedName string
}

// NewRole returns an unsaved role with a freshly assigned id.
func NewRole(name string) *Role {
	return &Role{ID: uuid.New(), Name: name}
}

// Snapshot records the current name as the persisted baseline.
func (r *Role) Snapshot() {
	r.loadedName = r.Name
}

// LoadedName reports the name as of the last load or save.
func (r *Role) LoadedName() string { return r.loadedName }
