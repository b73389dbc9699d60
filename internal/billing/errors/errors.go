package errors

import "errors"

var (
	ErrNotFound = errors.New("subscription not found for tenant")

	ErrInvalidID = errors.New("invalid subscription ID format")

	// ErrDuplicateTenant means the tenant already has a subscription row;
	// exactly one exists per tenant.
	ErrDuplicateTenant = errors.New("subscription already exists for tenant")

	// ErrDuplicateExternalID means another tenant's subscription already
	// claimed this external subscription id.
	ErrDuplicateExternalID = errors.New("external subscription id already linked")

	// ErrDuplicateEvent means this webhook event id was already applied; the
	// delivery is a replay.
	ErrDuplicateEvent = errors.New("billing event already processed")
)
