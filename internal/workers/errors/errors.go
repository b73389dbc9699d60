package errors

import "errors"

var (
	ErrInvitationNotFound = errors.New("invitation not found")

	ErrInvitationExpired = errors.New("invitation has expired")

	// ErrAlreadyRedeemed doubles as the race resolution: the conditional
	// redeemed-flag update fails for everyone but the first redeemer.
	ErrAlreadyRedeemed = errors.New("invitation already redeemed")

	ErrAlreadyWorker = errors.New("email already belongs to an account")
)
