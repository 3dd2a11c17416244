package dyson

import "errors"

var (
	// ErrDecodingFailed indicates a wire payload could not be decoded.
	ErrDecodingFailed = errors.New("decoding failed")

	// ErrEncodingFailed indicates a value could not be encoded for the wire.
	ErrEncodingFailed = errors.New("encoding failed")

	// ErrUnknownMessage indicates a payload with an unrecognised msg kind.
	ErrUnknownMessage = errors.New("unknown message kind")

	// ErrCapabilityMissing indicates an intent for a control the device
	// profile does not support.
	ErrCapabilityMissing = errors.New("capability not supported by device")

	// ErrSessionClosed indicates an operation on a session after teardown.
	ErrSessionClosed = errors.New("session closed")
)
