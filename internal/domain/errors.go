package domain

import "errors"

var (
	// ErrLeadNotFound is returned when a lead id does not exist.
	ErrLeadNotFound = errors.New("lead not found")

	// ErrUserNotFound is returned when an operation needs a user that was never seen.
	ErrUserNotFound = errors.New("user not found")
)
