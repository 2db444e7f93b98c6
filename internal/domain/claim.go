package domain

import "github.com/google/uuid"

// Claim is a (type, value) pair attached to a user.
type Claim struct {
	UserID uuid.UUID
	Type   string
	Value  string
}
