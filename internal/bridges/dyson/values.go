package dyson

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Sentinel strings the firmware places in numeric fields. They mean "sensor
// inactive or reading invalid" and must suppress the derived update, never
// parse as a number.
const (
	sentinelOff  = "OFF"
	sentinelInit = "INIT"
	sentinelInv  = "INV"
	sentinelInh  = "INH"
)

// isSentinel reports whether a field value is one of the firmware's
// non-numeric placeholder strings.
func isSentinel(value string) bool {
	switch value {
	case sentinelOff, sentinelInit, sentinelInv, sentinelInh:
		return true
	}
	return false
}

// parseNumeric converts a field string to an integer. Sentinel values and
// malformed strings return ok=false; callers suppress the update.
func parseNumeric(value string) (int, bool) {
	if isSentinel(value) {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return n, true
}

// extractValue reduces one raw state field to its effective value.
//
// CURRENT-STATE fields are plain scalars; STATE-CHANGE fields are
// [previous, new] tuples of which only the new value applies. Both state
// handlers funnel through this single step so the two wire encodings cannot
// drift apart.
//
// Parameters:
//   - raw: One field's raw JSON value
//   - tuple: True for the STATE-CHANGE tuple encoding
//
// Returns:
//   - string: The effective value
//   - error: If the JSON shape does not match the encoding
func extractValue(raw json.RawMessage, tuple bool) (string, error) {
	if tuple {
		var pair []string
		if err := json.Unmarshal(raw, &pair); err != nil {
			return "", fmt.Errorf("%w: state-change field is not a tuple: %v", ErrDecodingFailed, err)
		}
		if len(pair) != 2 {
			return "", fmt.Errorf("%w: state-change tuple has %d elements, want 2", ErrDecodingFailed, len(pair))
		}
		return pair[1], nil
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("%w: state field is not a string: %v", ErrDecodingFailed, err)
	}
	return value, nil
}

// extractFields reduces a whole product-state map to effective string values.
// Fields with an unexpected shape are dropped rather than failing the frame;
// the firmware occasionally adds fields with novel encodings.
func extractFields(raw map[string]json.RawMessage, tuple bool) map[string]string {
	fields := make(map[string]string, len(raw))
	for name, value := range raw {
		v, err := extractValue(value, tuple)
		if err != nil {
			continue
		}
		fields[name] = v
	}
	return fields
}
