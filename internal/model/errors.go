package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrSessionExpired is returned when the backend no longer knows the
	// polled session (distinct from an explicit job failure).
	ErrSessionExpired = errors.New("session expired")
	// ErrJobFailed is returned when the backend reports a job failure.
	ErrJobFailed = errors.New("job failed")
)
