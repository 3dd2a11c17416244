package device

import "errors"

var (
	// ErrSessionNotFound indicates no session is registered for a serial number.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists indicates a session is already registered for a serial number.
	ErrSessionExists = errors.New("session already registered")
)
