package errors

import "errors"

// Validation failures stay distinct internally; the HTTP boundary collapses
// them to one generic message.
var (
	ErrNotFound = errors.New("discount code not found for tenant")

	ErrInactive = errors.New("discount is inactive")

	ErrExpired = errors.New("discount has expired")

	ErrExhausted = errors.New("discount usage limit reached")

	ErrInvalidID = errors.New("invalid discount ID format")

	ErrDuplicateCode = errors.New("discount code already exists for tenant")

	// ErrUsageConflict means a concurrent booking consumed the last permitted
	// use between validation and commit.
	ErrUsageConflict = errors.New("discount usage limit reached concurrently")
)

// Reason maps a validation error to the internal sub-reason recorded on
// DISCOUNT_INVALID responses.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInactive):
		return "inactive"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrExhausted), errors.Is(err, ErrUsageConflict):
		return "exhausted"
	default:
		return "invalid"
	}
}
