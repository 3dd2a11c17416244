package dyson

import (
	"encoding/json"
	"fmt"
	"time"
)

// commandTimeFormat matches the ISO 8601 timestamp the firmware expects in
// command envelopes.
const commandTimeFormat = "2006-01-02T15:04:05.000Z"

// now is swapped in tests for deterministic envelope timestamps.
var now = time.Now

// EncodeStateSet builds a STATE-SET command envelope for the given field
// deltas.
//
// Parameters:
//   - data: Protocol field → target value, e.g. {"fpwr": "ON"}
//
// Returns:
//   - []byte: JSON envelope ready to publish on the command topic
//   - error: If data is empty
func EncodeStateSet(data map[string]string) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: state-set requires at least one field", ErrEncodingFailed)
	}
	return json.Marshal(commandEnvelope{
		Msg:  msgStateSet,
		Time: now().UTC().Format(commandTimeFormat),
		Data: data,
	})
}

// EncodeRequestCurrentState builds the snapshot request envelope published on
// connect and on every poll tick.
func EncodeRequestCurrentState() ([]byte, error) {
	return json.Marshal(commandEnvelope{
		Msg:  msgRequestCurrentState,
		Time: now().UTC().Format(commandTimeFormat),
	})
}
