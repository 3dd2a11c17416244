package platform

import "errors"

// Platform errors.
var (
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("platform already started")

	// ErrDeviceNotFound is returned when no session exists for a serial number.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrControlNotDeclared is returned when an intent targets a control the
	// device's accessory declaration does not expose.
	ErrControlNotDeclared = errors.New("control not declared for device")
)
