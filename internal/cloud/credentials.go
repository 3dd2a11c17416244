package cloud

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// The appliance provisioning scheme encrypts local credentials with a fixed,
// publicly known key (the byte sequence 1..32) and an all-zero IV. This is a
// historical obfuscation step, not a security boundary.
const credentialsKeySize = 32

func credentialsKey() []byte {
	key := make([]byte, credentialsKeySize)
	for i := range key {
		key[i] = byte(i + 1)
	}
	return key
}

// DeviceCredentials is the decoded per-device blob users paste into the
// configuration. The field casing matches the vendor API payload the blob
// was captured from.
type DeviceCredentials struct {
	Name        string `json:"Name"`
	Serial      string `json:"Serial"`
	ProductType string `json:"ProductType"`
	Version     string `json:"Version"`

	// Password is the decrypted MQTT password, filled in when the blob
	// was generated.
	Password string `json:"password"`
}

// DecodeCredentials parses a base64 credentials blob from the configuration.
//
// Parameters:
//   - blob: Base64-encoded JSON, surrounding whitespace tolerated
//
// Returns:
//   - DeviceCredentials: Decoded credentials
//   - error: ErrCredentialsInvalid for malformed base64 or JSON, or missing
//     required fields
func DecodeCredentials(blob string) (DeviceCredentials, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(blob))
	if err != nil {
		return DeviceCredentials{}, fmt.Errorf("%w: base64 decode: %v", ErrCredentialsInvalid, err)
	}

	var creds DeviceCredentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return DeviceCredentials{}, fmt.Errorf("%w: json decode: %v", ErrCredentialsInvalid, err)
	}

	if creds.Serial == "" {
		return DeviceCredentials{}, fmt.Errorf("%w: missing serial number", ErrCredentialsInvalid)
	}
	if creds.ProductType == "" {
		return DeviceCredentials{}, fmt.Errorf("%w: missing product type", ErrCredentialsInvalid)
	}
	if creds.Password == "" {
		return DeviceCredentials{}, fmt.Errorf("%w: missing password", ErrCredentialsInvalid)
	}

	return creds, nil
}

// localCredentials is the plaintext inside an encrypted LocalCredentials
// value.
type localCredentials struct {
	Serial         string `json:"serial"`
	APPasswordHash string `json:"apPasswordHash"`
}

// DecryptLocalCredentials decrypts a directory-supplied LocalCredentials
// value and returns the MQTT password hash inside it.
//
// Parameters:
//   - encrypted: Base64-encoded AES-256-CBC ciphertext
//
// Returns:
//   - string: The apPasswordHash used as the MQTT password
//   - error: ErrDecryptFailed for malformed ciphertext or padding
func DecryptLocalCredentials(encrypted string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encrypted))
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode: %v", ErrDecryptFailed, err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d not a block multiple", ErrDecryptFailed, len(ciphertext))
	}

	block, err := aes.NewCipher(credentialsKey())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}

	iv := make([]byte, aes.BlockSize)
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	plaintext, err = stripPKCS7(plaintext)
	if err != nil {
		return "", err
	}

	var creds localCredentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return "", fmt.Errorf("%w: json decode: %v", ErrDecryptFailed, err)
	}
	if creds.APPasswordHash == "" {
		return "", fmt.Errorf("%w: missing apPasswordHash", ErrDecryptFailed)
	}

	return creds.APPasswordHash, nil
}

// stripPKCS7 removes CBC block padding.
func stripPKCS7(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrDecryptFailed)
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(data) {
		return nil, fmt.Errorf("%w: invalid padding", ErrDecryptFailed)
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("%w: invalid padding", ErrDecryptFailed)
		}
	}
	return data[:len(data)-pad], nil
}
