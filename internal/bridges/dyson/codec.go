package dyson

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/purebridge/purebridge-core/internal/device"
)

// filterLifeHours is the rated filter life used to convert the cumulative
// hours encoding (filf) to a percentage: 360 days of 12 hours.
const filterLifeHours = 360 * 12

// filterChangeThreshold is the remaining-life percent below which the
// change indication trips.
const filterChangeThreshold = 10

// Decode parses one raw status payload into a Frame.
//
// Parameters:
//   - payload: Raw JSON from the status/current topic
//
// Returns:
//   - Frame: Decoded frame with exactly one variant set
//   - error: ErrDecodingFailed for malformed JSON, ErrUnknownMessage for
//     unrecognised msg kinds
func Decode(payload []byte) (Frame, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrDecodingFailed, err)
	}

	switch env.Msg {
	case msgEnvironmentalData:
		fields := make(map[string]string, len(env.Data))
		for name, raw := range env.Data {
			var value string
			if err := json.Unmarshal(raw, &value); err != nil {
				continue
			}
			fields[name] = value
		}
		return Frame{Environmental: &EnvironmentalFrame{Fields: fields}}, nil

	case msgCurrentState:
		return Frame{State: &StateFrame{
			Initial: true,
			Fields:  extractFields(env.ProductState, false),
		}}, nil

	case msgStateChange:
		return Frame{State: &StateFrame{
			Fields: extractFields(env.ProductState, true),
		}}, nil

	default:
		return Frame{}, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Msg)
	}
}

// Environment is the normalized result of one environmental frame. Nil
// pointers mean the reading was suppressed (sensor off, warming up, or
// invalid), never zero.
type Environment struct {
	TemperatureCelsius *float64
	HumidityPercent    *int
	AirQuality         *AirQuality
}

// AirQuality carries the overall severity level plus the raw densities that
// produced it. Density pointers are nil on hardware lacking that sensor.
type AirQuality struct {
	// Overall is the worst applicable sub-score, 1..5.
	Overall int

	PM25 *int
	PM10 *int
	VOC  *int
	NO2  *int
	HCHO *int
}

// DeriveEnvironment normalizes an environmental frame for a device profile.
//
// Temperature and humidity are suppressed individually when their field
// carries a sentinel. Air quality is all-or-nothing: if any required raw
// field is a sentinel (continuous monitoring disabled, sensors warming up),
// the whole AirQuality update is suppressed because partial sensor read
// windows are invalid.
//
// Parameters:
//   - profile: Capability profile selecting basic vs advanced sensor fields
//   - frame: Decoded environmental frame
//   - temperatureOffset: User-configured reading correction in °C
//   - humidityOffset: User-configured reading correction in percent
//
// Returns:
//   - Environment: Normalized readings, nil fields where suppressed
func DeriveEnvironment(profile device.Profile, frame *EnvironmentalFrame, temperatureOffset, humidityOffset float64) Environment {
	var env Environment

	if tact, ok := frame.Fields["tact"]; ok {
		if celsius, ok := DecodeTemperature(tact, temperatureOffset); ok {
			env.TemperatureCelsius = &celsius
		}
	}

	if hact, ok := frame.Fields["hact"]; ok {
		if percent, ok := parseNumeric(hact); ok {
			corrected := percent + int(math.Round(humidityOffset))
			env.HumidityPercent = &corrected
		}
	}

	if profile.HasAdvancedAirQualitySensors {
		env.AirQuality = deriveAdvancedAirQuality(frame.Fields)
	} else {
		env.AirQuality = deriveBasicAirQuality(frame.Fields)
	}

	return env
}

// deriveAdvancedAirQuality computes the quality result from the discrete
// sensor suite. Returns nil when any required reading is unavailable.
func deriveAdvancedAirQuality(fields map[string]string) *AirQuality {
	pm25, ok := numericField(fields, "pm25", "p25r")
	if !ok {
		return nil
	}
	pm10, ok := numericField(fields, "pm10", "p10r")
	if !ok {
		return nil
	}
	va10, ok := numericField(fields, "va10")
	if !ok {
		return nil
	}

	aq := &AirQuality{PM25: &pm25, PM10: &pm10, VOC: &va10}
	scores := []int{PM25Quality(pm25), PM10Quality(pm10), VOCQuality(va10)}

	// NO2 and formaldehyde sensors exist only on some generations; their
	// absence contributes nothing to the overall score.
	if noxl, ok := numericField(fields, "noxl"); ok {
		aq.NO2 = &noxl
		scores = append(scores, NO2Quality(noxl))
	}
	if hchr, ok := numericField(fields, "hchr"); ok {
		aq.HCHO = &hchr
		scores = append(scores, HCHOQuality(hchr))
	}

	aq.Overall = OverallQuality(scores...)
	return aq
}

// deriveBasicAirQuality computes the quality result from the two-field
// legacy sensor pair. Returns nil when either reading is unavailable.
func deriveBasicAirQuality(fields map[string]string) *AirQuality {
	pact, ok := numericField(fields, "pact")
	if !ok {
		return nil
	}
	vact, ok := numericField(fields, "vact")
	if !ok {
		return nil
	}

	return &AirQuality{
		Overall: OverallQuality(BasicParticulateQuality(pact), BasicVOCQuality(vact)),
	}
}

// numericField returns the first parseable numeric value among the named
// fields. Field naming varies between generations (pm25 vs p25r).
func numericField(fields map[string]string, names ...string) (int, bool) {
	for _, name := range names {
		if value, ok := fields[name]; ok {
			if n, ok := parseNumeric(value); ok {
				return n, true
			}
			return 0, false
		}
	}
	return 0, false
}

// State is the normalized result of one state frame. Nil pointers mean that
// field was absent from the frame or its value carried no update.
type State struct {
	Power                *bool
	Mode                 *Mode
	Purifying            *bool
	FanSpeedPercent      *int
	Oscillation          *bool
	NightMode            *bool
	JetFocus             *bool
	ContinuousMonitoring *bool
	HeatingOn            *bool
	TargetTemperature    *float64
	HumidifierOn         *bool
	TargetHumidity       *int
	Filter               *FilterStatus
}

// Mode is the purifier's target operating mode.
type Mode string

const (
	// ModeAuto lets the appliance pick fan speed from sensor readings.
	ModeAuto Mode = "AUTO"

	// ModeManual holds the externally set fan speed.
	ModeManual Mode = "MANUAL"
)

// FilterStatus is the derived filter condition.
type FilterStatus struct {
	LifePercent int
	NeedsChange bool
}

// DeriveState normalizes a state frame for a device profile.
//
// Both firmware generations are handled: newer models report power as fpwr,
// older Link models only as fmod. A reported fnsp of "AUTO" carries no
// numeric speed and leaves FanSpeedPercent nil so it cannot overwrite a
// manually set value.
//
// Parameters:
//   - profile: Capability profile gating heater and humidifier fields
//   - frame: Decoded state frame
//   - temperatureOffset: User-configured reading correction in °C
//
// Returns:
//   - State: Normalized actuator state, nil fields where absent
func DeriveState(profile device.Profile, frame *StateFrame, temperatureOffset float64) State {
	var st State
	fields := frame.Fields

	if fpwr, ok := fields["fpwr"]; ok {
		on := fpwr != sentinelOff
		st.Power = &on
	} else if fmod, ok := fields["fmod"]; ok {
		on := fmod != sentinelOff
		st.Power = &on
	}

	if auto, ok := fields["auto"]; ok {
		st.Mode = modePtr(auto != sentinelOff)
	} else if fmod, ok := fields["fmod"]; ok && fmod != sentinelOff {
		st.Mode = modePtr(fmod == "AUTO")
	}

	if fnst, ok := fields["fnst"]; ok {
		purifying := fnst != sentinelOff
		st.Purifying = &purifying
	}

	if fnsp, ok := fields["fnsp"]; ok {
		if percent, ok := DecodeFanSpeed(fnsp); ok {
			st.FanSpeedPercent = &percent
		}
	}

	if oson, ok := fields["oson"]; ok {
		on := oson != sentinelOff
		st.Oscillation = &on
	}

	if nmod, ok := fields["nmod"]; ok {
		on := nmod != sentinelOff
		st.NightMode = &on
	}

	if profile.HasJetFocus {
		if fdir, ok := fields["fdir"]; ok {
			on := fdir != sentinelOff
			st.JetFocus = &on
		} else if ffoc, ok := fields["ffoc"]; ok {
			on := ffoc != sentinelOff
			st.JetFocus = &on
		}
	}

	if rhtm, ok := fields["rhtm"]; ok {
		on := rhtm != sentinelOff
		st.ContinuousMonitoring = &on
	}

	if profile.HasHeating {
		if hmod, ok := fields["hmod"]; ok {
			on := hmod == "HEAT"
			st.HeatingOn = &on
		}
		if hmax, ok := fields["hmax"]; ok {
			if celsius, ok := DecodeTemperature(hmax, temperatureOffset); ok {
				st.TargetTemperature = &celsius
			}
		}
	}

	if profile.HasHumidifier {
		if hume, ok := fields["hume"]; ok {
			on := hume == "HUMD"
			st.HumidifierOn = &on
		}
		if humt, ok := fields["humt"]; ok {
			if percent, ok := parseNumeric(humt); ok {
				st.TargetHumidity = &percent
			}
		}
	}

	st.Filter = deriveFilterStatus(fields)

	return st
}

// deriveFilterStatus computes remaining filter life from whichever of the
// two coexisting encodings the frame carries.
//
// Newer models report two percentage fields (cflr carbon, hflr HEPA) where
// the sentinels INV/INH mean "not fitted", counted as 100%. Older models
// report cumulative run hours (filf) against the rated filter life.
func deriveFilterStatus(fields map[string]string) *FilterStatus {
	cflr, hasCflr := fields["cflr"]
	hflr, hasHflr := fields["hflr"]
	if hasCflr && hasHflr {
		percent := minInt(filterPercent(cflr), filterPercent(hflr))
		return &FilterStatus{
			LifePercent: percent,
			NeedsChange: percent < filterChangeThreshold,
		}
	}

	if filf, ok := fields["filf"]; ok {
		hours, ok := parseNumeric(filf)
		if !ok {
			return nil
		}
		percent := int(math.Ceil(float64(hours) / filterLifeHours * 100))
		return &FilterStatus{
			LifePercent: percent,
			NeedsChange: percent < filterChangeThreshold,
		}
	}

	return nil
}

// filterPercent parses one filter-life percentage field, treating the
// not-fitted sentinels as full life.
func filterPercent(value string) int {
	if value == sentinelInv || value == sentinelInh {
		return 100
	}
	if n, ok := parseNumeric(value); ok {
		return n
	}
	return 100
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func modePtr(auto bool) *Mode {
	m := ModeManual
	if auto {
		m = ModeAuto
	}
	return &m
}
