// Package cloud handles the external device directory and the appliance
// credential formats.
//
// The directory supplies per-device provisioning records whose
// LocalCredentials value is AES-256-CBC ciphertext under a fixed, publicly
// known key with a zero IV. Decrypting it yields the apPasswordHash used as
// the MQTT password for the appliance's local broker. Users can
// alternatively paste a pre-decoded base64 credentials blob straight into
// the configuration; DecodeCredentials parses that form.
//
// Directory errors are never fatal: listings retry after a configured
// backoff and per-device decode failures skip only that device.
package cloud
