package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrNilUser            = errors.New("user is nil")
	ErrNilRole            = errors.New("role is nil")
	ErrMissingID          = errors.New("id is required")
	ErrBlankKey           = errors.New("lookup key must not be blank")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLockedOut          = errors.New("account is locked out")
)
