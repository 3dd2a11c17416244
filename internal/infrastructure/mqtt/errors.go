package mqtt

import "errors"

var (
	// ErrInvalidOptions indicates the device options are incomplete.
	ErrInvalidOptions = errors.New("invalid device options")

	// ErrNotConnected indicates an operation was attempted while the
	// appliance link is down.
	ErrNotConnected = errors.New("not connected to appliance")
)
