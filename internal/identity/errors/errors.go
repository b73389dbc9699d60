package errors

import "errors"

var (
	ErrNotFound = errors.New("account not found")

	ErrInvalidID = errors.New("invalid account ID format")

	// ErrNoOwner means the principal exists but resolves to no tenant: a
	// revoked worker or an account outside any ownership chain.
	ErrNoOwner = errors.New("account resolves to no owning tenant")

	ErrDuplicateEmail = errors.New("an account with this email already exists")
)
