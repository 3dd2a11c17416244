package dyson

import (
	"fmt"
	"time"
)

// Control identifies one externally settable appliance control.
type Control string

const (
	ControlPower                Control = "power"
	ControlTargetMode           Control = "target_mode"
	ControlFanSpeed             Control = "fan_speed"
	ControlOscillation          Control = "oscillation"
	ControlNightMode            Control = "night_mode"
	ControlJetFocus             Control = "jet_focus"
	ControlHeatingMode          Control = "heating_mode"
	ControlHeatingTarget        Control = "heating_target"
	ControlHumidifierMode       Control = "humidifier_mode"
	ControlHumidityTarget       Control = "humidity_target"
	ControlContinuousMonitoring Control = "continuous_monitoring"
)

// Intent is one externally observed change request for a control. Which
// value field applies depends on the control: On for toggles, Percent for
// fan speed and humidity target, Celsius for the heating target, Mode for
// the target mode.
type Intent struct {
	Control Control
	On      bool
	Percent int
	Celsius float64
	Mode    Mode
}

// gate rejects intents for controls the capability profile lacks. Controls
// are also gated at declaration time; this is the structural backstop for
// callers that bypass the accessory layer.
func (s *Session) gate(control Control) error {
	ok := true
	switch control {
	case ControlOscillation:
		ok = s.profile.HasOscillation
	case ControlJetFocus:
		ok = s.profile.HasJetFocus
	case ControlHeatingMode, ControlHeatingTarget:
		ok = s.profile.HasHeating
	case ControlHumidifierMode, ControlHumidityTarget:
		ok = s.profile.HasHumidifier
	}
	if !ok {
		return fmt.Errorf("%w: %s on %s", ErrCapabilityMissing, control, s.cfg.ProductType)
	}
	return nil
}

// handleIntent translates one intent into protocol commands. Runs on the
// event loop.
func (s *Session) handleIntent(intent Intent) {
	switch intent.Control {
	case ControlPower:
		s.applyPower(intent.On)
	case ControlTargetMode:
		s.applyTargetMode(intent.Mode)
	case ControlFanSpeed:
		s.applyFanSpeed(intent.Percent)
	case ControlOscillation:
		s.sendStateSet(map[string]string{"oson": onOff(intent.On)})
	case ControlNightMode:
		s.applyNightMode(intent.On)
	case ControlJetFocus:
		s.sendStateSet(map[string]string{"fdir": onOff(intent.On)})
	case ControlHeatingMode:
		s.applyHeatingMode(intent.On)
	case ControlHeatingTarget:
		s.sendStateSet(map[string]string{
			"hmax": EncodeTargetTemperature(intent.Celsius, s.cfg.TemperatureOffset),
		})
	case ControlHumidifierMode:
		s.applyHumidifierMode(intent.On)
	case ControlHumidityTarget:
		s.sendStateSet(map[string]string{
			"humt": EncodeHumidityTarget(intent.Percent, s.cfg.IsFullRangeHumidityEnabled),
		})
	case ControlContinuousMonitoring:
		s.sendStateSet(map[string]string{"rhtm": onOff(intent.On)})
	default:
		s.logger.Warn("unknown control intent",
			"serial_number", s.cfg.SerialNumber,
			"control", string(intent.Control),
		)
	}
}

// activeMode is the fan mode used when a command also powers the unit on.
func (s *Session) activeMode() string {
	if s.cfg.EnableAutoModeWhenActivating {
		return "AUTO"
	}
	return "FAN"
}

// applyPower handles the power toggle.
//
// A power command always cancels a pending deferred mode write: the firmware
// race the deferral works around is exactly an Active arriving on the heels
// of a TargetMode, and the power toggle wins.
//
// Idempotent: a request matching the last known power state sends nothing.
// Power-on carries the configured side effects (oscillation, night mode) and
// forces heating off on heater models unless the safety interlock is
// disabled in configuration.
func (s *Session) applyPower(on bool) {
	s.clearPendingMode("power toggle")

	if last, known := s.lastPower(); known && last == on {
		s.logger.Debug("power already in requested state",
			"serial_number", s.cfg.SerialNumber,
			"on", on,
		)
		return
	}

	if !on {
		s.sendStateSet(map[string]string{"fpwr": "OFF", "fmod": "OFF"})
		return
	}

	data := map[string]string{"fpwr": "ON", "fmod": s.activeMode()}
	if s.cfg.EnableOscillationWhenActivating && s.profile.HasOscillation {
		data["oson"] = "ON"
	}
	if s.cfg.EnableNightModeWhenActivating {
		data["nmod"] = "ON"
	}
	if s.profile.HasHeating && !s.cfg.IsHeatingSafetyIgnored {
		data["hmod"] = "OFF"
	}
	s.sendStateSet(data)
}

// applyTargetMode handles the Auto/Manual mode toggle with the deferred
// write workaround.
//
// Publishing a mode command immediately before an Active command makes the
// firmware force Auto mode, so the command is held for the deferral window
// and dropped if a power toggle arrives first. With the auto-on-activate
// option the firmware quirk is harmless and the command goes out directly.
func (s *Session) applyTargetMode(mode Mode) {
	data := map[string]string{
		"auto": onOff(mode == ModeAuto),
		"fmod": "FAN",
	}
	if mode == ModeAuto {
		data["fmod"] = "AUTO"
	}

	if s.cfg.EnableAutoModeWhenActivating {
		s.sendStateSet(data)
		return
	}

	s.clearPendingMode("replaced by newer mode write")

	s.deferSeq++
	seq := s.deferSeq
	s.pendingMode = &pendingMode{
		seq:  seq,
		data: data,
		timer: time.AfterFunc(s.cfg.DeferDelay, func() {
			s.post(deferredEvent{seq: seq})
		}),
	}
	s.logger.Debug("mode write deferred",
		"serial_number", s.cfg.SerialNumber,
		"mode", string(mode),
		"delay", s.cfg.DeferDelay,
	)
}

func (s *Session) applyFanSpeed(percent int) {
	fnsp, err := EncodeFanSpeed(percent)
	if err != nil {
		s.logger.Warn("fan speed rejected",
			"serial_number", s.cfg.SerialNumber,
			"percent", percent,
			"error", err,
		)
		return
	}
	s.sendStateSet(map[string]string{"fnsp": fnsp})
}

// applyNightMode handles the night mode switch. Enabling night mode on a
// powered-off unit must also power it on in the same command; disabling
// never touches power.
func (s *Session) applyNightMode(on bool) {
	if !on {
		s.sendStateSet(map[string]string{"nmod": "OFF"})
		return
	}

	if powered, known := s.lastPower(); known && powered {
		s.sendStateSet(map[string]string{"nmod": "ON"})
		return
	}

	s.sendStateSet(map[string]string{
		"fpwr": "ON",
		"fmod": s.activeMode(),
		"nmod": "ON",
	})
}

func (s *Session) applyHeatingMode(on bool) {
	hmod := "OFF"
	if on {
		hmod = "HEAT"
	}
	s.sendStateSet(map[string]string{"hmod": hmod})
}

func (s *Session) applyHumidifierMode(on bool) {
	hume := "OFF"
	if on {
		hume = "HUMD"
	}
	s.sendStateSet(map[string]string{"hume": hume})
}
