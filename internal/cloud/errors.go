package cloud

import "errors"

var (
	// ErrCredentialsInvalid indicates a malformed configuration
	// credentials blob.
	ErrCredentialsInvalid = errors.New("invalid device credentials")

	// ErrDecryptFailed indicates a LocalCredentials value could not be
	// decrypted.
	ErrDecryptFailed = errors.New("credentials decryption failed")

	// ErrDirectoryUnavailable indicates the device directory could not be
	// listed.
	ErrDirectoryUnavailable = errors.New("device directory unavailable")
)
