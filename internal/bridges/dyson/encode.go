package dyson

import (
	"fmt"
	"math"
)

// Protocol encoding constants.
const (
	// kelvinOffset converts between Celsius and the Kelvin-based wire unit.
	kelvinOffset = 273.0

	// fanSpeedStep is the percent width of one firmware speed step (1..10).
	fanSpeedStep = 10

	// humidityTargetMin/Max bound the humidifier threshold unless the
	// full-range option is configured.
	humidityTargetMin = 30
	humidityTargetMax = 70

	// heatingTargetMinCelsius/Max bound the heating target.
	heatingTargetMinCelsius = 0
	heatingTargetMaxCelsius = 37
)

// onOff encodes a boolean as the protocol's ON/OFF string.
func onOff(value bool) string {
	if value {
		return "ON"
	}
	return "OFF"
}

// EncodeFanSpeed converts a 0-100 percent speed to the wire format: the
// firmware step number zero-padded to 4 digits ("0004" for 40%).
//
// Parameters:
//   - percent: Speed percentage, multiples of 10
//
// Returns:
//   - string: Zero-padded step number
//   - error: If percent is outside 0-100
func EncodeFanSpeed(percent int) (string, error) {
	if percent < 0 || percent > 100 {
		return "", fmt.Errorf("%w: fan speed %d%% outside 0-100", ErrEncodingFailed, percent)
	}
	step := int(math.Round(float64(percent) / fanSpeedStep))
	return fmt.Sprintf("%04d", step), nil
}

// DecodeFanSpeed converts a wire speed field back to a 0-100 percent value.
//
// The firmware reports "AUTO" while auto mode chooses the speed; that value
// carries no numeric meaning and must not overwrite a manually set speed, so
// it returns ok=false like the sentinels do.
//
// Parameters:
//   - field: Raw fnsp field value
//
// Returns:
//   - int: Speed percentage
//   - bool: False for "AUTO", sentinels, and malformed values
func DecodeFanSpeed(field string) (int, bool) {
	if field == "AUTO" {
		return 0, false
	}
	step, ok := parseNumeric(field)
	if !ok {
		return 0, false
	}
	return step * fanSpeedStep, true
}

// EncodeTargetTemperature converts a Celsius heating target to the wire
// format: Kelvin tenths zero-padded to 4 digits ("2930" for 20°C).
//
// The user-configured temperature offset is subtracted so the device-side
// target matches what the user sees after offset correction on readings.
// The Celsius input is clamped to the device-supported range first.
//
// Parameters:
//   - celsius: Target in degrees Celsius
//   - offset: Configured temperature offset in degrees Celsius
//
// Returns:
//   - string: Zero-padded Kelvin tenths
func EncodeTargetTemperature(celsius, offset float64) string {
	if celsius < heatingTargetMinCelsius {
		celsius = heatingTargetMinCelsius
	} else if celsius > heatingTargetMaxCelsius {
		celsius = heatingTargetMaxCelsius
	}
	kelvinTenths := int(math.Round((celsius + kelvinOffset - offset) * 10))
	return fmt.Sprintf("%04d", kelvinTenths)
}

// DecodeTemperature converts a Kelvin-tenths wire field to degrees Celsius
// with the configured offset applied.
//
// Parameters:
//   - field: Raw tact or hmax field value
//   - offset: Configured temperature offset in degrees Celsius
//
// Returns:
//   - float64: Degrees Celsius
//   - bool: False for sentinels and malformed values
func DecodeTemperature(field string, offset float64) (float64, bool) {
	tenths, ok := parseNumeric(field)
	if !ok {
		return 0, false
	}
	return float64(tenths)/10.0 - kelvinOffset + offset, true
}

// EncodeHumidityTarget converts a percent threshold to the wire format,
// clamped to the supported range: [30, 70] normally, [0, 100] when the
// full-range option is configured.
//
// Parameters:
//   - percent: Target relative humidity
//   - fullRange: True when the full-range humidity option is configured
//
// Returns:
//   - string: Zero-padded percent ("0045")
func EncodeHumidityTarget(percent int, fullRange bool) string {
	lo, hi := humidityTargetMin, humidityTargetMax
	if fullRange {
		lo, hi = 0, 100
	}
	if percent < lo {
		percent = lo
	} else if percent > hi {
		percent = hi
	}
	return fmt.Sprintf("%04d", percent)
}
