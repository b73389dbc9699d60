package errors

import "errors"

var (
	ErrNotFound = errors.New("service not found")

	ErrInvalidID = errors.New("invalid service ID format")

	ErrInactive = errors.New("service is not active")
)
