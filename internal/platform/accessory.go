package platform

import (
	"github.com/purebridge/purebridge-core/internal/bridges/dyson"
	"github.com/purebridge/purebridge-core/internal/device"
	"github.com/purebridge/purebridge-core/internal/infrastructure/config"
)

// ControlKind distinguishes how a control's value is expressed.
type ControlKind string

const (
	// KindSwitch is a boolean toggle.
	KindSwitch ControlKind = "switch"

	// KindRange is a bounded numeric value with a step.
	KindRange ControlKind = "range"
)

// ControlDecl declares one externally settable control, with its value
// range where the kind is numeric.
type ControlDecl struct {
	Control dyson.Control `json:"control"`
	Kind    ControlKind   `json:"kind"`
	Min     float64       `json:"min,omitempty"`
	Max     float64       `json:"max,omitempty"`
	Step    float64       `json:"step,omitempty"`
}

// SensorDecl declares one read-only value the appliance reports.
type SensorDecl struct {
	Name string  `json:"name"`
	Unit string  `json:"unit,omitempty"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Accessory is the declared external surface of one appliance: which
// controls accept writes and which sensors push readings. Controls absent
// from the declaration are also rejected structurally by the session, so
// the declaration and the dispatch gate can never disagree on direction.
type Accessory struct {
	SerialNumber     string `json:"serial_number"`
	Name             string `json:"name"`
	Model            string `json:"model"`
	HardwareRevision string `json:"hardware_revision,omitempty"`

	// SingleAccessory groups every control and sensor under one external
	// accessory instead of splitting sensors out.
	SingleAccessory bool `json:"single_accessory"`

	// UseFahrenheit marks temperature values for Fahrenheit display.
	// Values in Environment and State stay in Celsius regardless.
	UseFahrenheit bool `json:"use_fahrenheit"`

	Controls []ControlDecl `json:"controls"`
	Sensors  []SensorDecl  `json:"sensors"`
}

// Value range constants for declared controls and sensors.
const (
	fanSpeedMin  = 0
	fanSpeedMax  = 100
	fanSpeedStep = 10

	heatingTargetMin  = 0
	heatingTargetMax  = 37
	heatingTargetStep = 0.1

	humidityTargetMin = 30
	humidityTargetMax = 70

	temperatureSensorMin = -50
	temperatureSensorMax = 100

	airQualityMin = 1
	airQualityMax = 5
)

// BuildAccessory derives the declared surface for one appliance from its
// capability profile and per-device options. Capability flags gate what the
// hardware can do; the Is*Enabled options gate what the user wants exposed.
func BuildAccessory(serialNumber, name string, profile device.Profile, cfg config.DeviceConfig) Accessory {
	acc := Accessory{
		SerialNumber:     serialNumber,
		Name:             name,
		Model:            profile.Model,
		HardwareRevision: profile.HardwareRevision,
		SingleAccessory:  cfg.IsSingleAccessoryModeEnabled,
		UseFahrenheit:    cfg.UseFahrenheit,
	}
	if acc.Name == "" {
		acc.Name = profile.Model
	}

	acc.Controls = append(acc.Controls,
		ControlDecl{Control: dyson.ControlPower, Kind: KindSwitch},
		ControlDecl{Control: dyson.ControlTargetMode, Kind: KindSwitch},
		ControlDecl{Control: dyson.ControlFanSpeed, Kind: KindRange, Min: fanSpeedMin, Max: fanSpeedMax, Step: fanSpeedStep},
	)

	if profile.HasOscillation {
		acc.Controls = append(acc.Controls, ControlDecl{Control: dyson.ControlOscillation, Kind: KindSwitch})
	}
	if cfg.IsNightModeEnabled {
		acc.Controls = append(acc.Controls, ControlDecl{Control: dyson.ControlNightMode, Kind: KindSwitch})
	}
	if profile.HasJetFocus && cfg.IsJetFocusEnabled {
		acc.Controls = append(acc.Controls, ControlDecl{Control: dyson.ControlJetFocus, Kind: KindSwitch})
	}
	if profile.HasHeating {
		acc.Controls = append(acc.Controls,
			ControlDecl{Control: dyson.ControlHeatingMode, Kind: KindSwitch},
			ControlDecl{Control: dyson.ControlHeatingTarget, Kind: KindRange, Min: heatingTargetMin, Max: heatingTargetMax, Step: heatingTargetStep},
		)
	}
	if profile.HasHumidifier {
		lo, hi := float64(humidityTargetMin), float64(humidityTargetMax)
		if cfg.IsFullRangeHumidityEnabled {
			lo, hi = 0, 100
		}
		acc.Controls = append(acc.Controls,
			ControlDecl{Control: dyson.ControlHumidifierMode, Kind: KindSwitch},
			ControlDecl{Control: dyson.ControlHumidityTarget, Kind: KindRange, Min: lo, Max: hi, Step: 1},
		)
	}
	if cfg.IsContinuousMonitoringEnabled {
		acc.Controls = append(acc.Controls, ControlDecl{Control: dyson.ControlContinuousMonitoring, Kind: KindSwitch})
	}

	if cfg.IsTemperatureSensorEnabled {
		acc.Sensors = append(acc.Sensors, SensorDecl{Name: "temperature", Unit: "°C", Min: temperatureSensorMin, Max: temperatureSensorMax})
	}
	if cfg.IsHumiditySensorEnabled {
		acc.Sensors = append(acc.Sensors, SensorDecl{Name: "humidity", Unit: "%", Min: 0, Max: 100})
	}
	if cfg.IsAirQualitySensorEnabled {
		acc.Sensors = append(acc.Sensors, SensorDecl{Name: "air_quality", Min: airQualityMin, Max: airQualityMax})
		if profile.HasAdvancedAirQualitySensors {
			acc.Sensors = append(acc.Sensors,
				SensorDecl{Name: "pm2_5", Min: airQualityMin, Max: airQualityMax},
				SensorDecl{Name: "pm10", Min: airQualityMin, Max: airQualityMax},
				SensorDecl{Name: "voc", Min: airQualityMin, Max: airQualityMax},
			)
		}
	}
	acc.Sensors = append(acc.Sensors, SensorDecl{Name: "filter_life", Unit: "%", Min: 0, Max: 100})

	return acc
}

// HasControl reports whether the declaration includes the control.
func (a Accessory) HasControl(control dyson.Control) bool {
	for _, c := range a.Controls {
		if c.Control == control {
			return true
		}
	}
	return false
}
