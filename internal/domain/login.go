package domain

import "github.com/google/uuid"

// Login links a user to an external identity provider. At most one user owns
// a given (provider, key) pair; the reverse-lookup table enforces that by
// key shape, not by check.
type Login struct {
	UserID      uuid.UUID
	Provider    string
	ProviderKey string
}
