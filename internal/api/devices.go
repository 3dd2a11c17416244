package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/purebridge/purebridge-core/internal/bridges/dyson"
	"github.com/purebridge/purebridge-core/internal/platform"
)

// handleListDevices returns all running devices with their declared
// accessories and latest snapshots.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.platform.Devices()
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleGetDevice returns one device by serial number.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")

	info, err := s.platform.Device(serial)
	if err != nil {
		if errors.Is(err, platform.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to load device")
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// setControlRequest is the body of a control write. Which field is required
// depends on the control: toggles take on, fan speed and humidity target
// take percent, the heating target takes celsius, the target mode takes
// mode ("AUTO" or "MANUAL") or falls back to on.
type setControlRequest struct {
	On      *bool    `json:"on,omitempty"`
	Percent *int     `json:"percent,omitempty"`
	Celsius *float64 `json:"celsius,omitempty"`
	Mode    *string  `json:"mode,omitempty"`
}

// handleSetControl applies a control write to a device.
func (s *Server) handleSetControl(w http.ResponseWriter, r *http.Request) {
	serial := chi.URLParam(r, "serial")
	control := dyson.Control(chi.URLParam(r, "control"))

	var req setControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	intent, err := buildIntent(control, req)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.platform.Apply(serial, intent); err != nil {
		switch {
		case errors.Is(err, platform.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		case errors.Is(err, platform.ErrControlNotDeclared),
			errors.Is(err, dyson.ErrCapabilityMissing):
			writeBadRequest(w, err.Error())
		case errors.Is(err, dyson.ErrSessionClosed):
			writeError(w, http.StatusConflict, ErrCodeConflict, "device session is closed")
		default:
			writeInternalError(w, "failed to apply control")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"serial":  serial,
		"control": control,
		"applied": true,
	})
}

// buildIntent validates the request body against the control and builds the
// session intent.
func buildIntent(control dyson.Control, req setControlRequest) (dyson.Intent, error) {
	intent := dyson.Intent{Control: control}

	switch control {
	case dyson.ControlPower, dyson.ControlOscillation, dyson.ControlNightMode,
		dyson.ControlJetFocus, dyson.ControlHeatingMode, dyson.ControlHumidifierMode,
		dyson.ControlContinuousMonitoring:
		if req.On == nil {
			return dyson.Intent{}, errors.New("control requires an \"on\" value")
		}
		intent.On = *req.On

	case dyson.ControlFanSpeed, dyson.ControlHumidityTarget:
		if req.Percent == nil {
			return dyson.Intent{}, errors.New("control requires a \"percent\" value")
		}
		intent.Percent = *req.Percent

	case dyson.ControlHeatingTarget:
		if req.Celsius == nil {
			return dyson.Intent{}, errors.New("control requires a \"celsius\" value")
		}
		intent.Celsius = *req.Celsius

	case dyson.ControlTargetMode:
		switch {
		case req.Mode != nil && (*req.Mode == string(dyson.ModeAuto) || *req.Mode == string(dyson.ModeManual)):
			intent.Mode = dyson.Mode(*req.Mode)
		case req.Mode != nil:
			return dyson.Intent{}, errors.New("mode must be \"AUTO\" or \"MANUAL\"")
		case req.On != nil:
			intent.Mode = dyson.ModeManual
			if *req.On {
				intent.Mode = dyson.ModeAuto
			}
		default:
			return dyson.Intent{}, errors.New("control requires a \"mode\" or \"on\" value")
		}

	default:
		return dyson.Intent{}, errors.New("unknown control")
	}

	return intent, nil
}
