package dyson

import "encoding/json"

// Wire message kinds published by the appliance on status/current.
const (
	msgEnvironmentalData = "ENVIRONMENTAL-CURRENT-SENSOR-DATA"
	msgCurrentState      = "CURRENT-STATE"
	msgStateChange       = "STATE-CHANGE"
)

// Command kinds accepted by the appliance on the command topic.
const (
	msgStateSet            = "STATE-SET"
	msgRequestCurrentState = "REQUEST-CURRENT-STATE"
)

// envelope is the outer shape of every inbound status message.
//
// ENVIRONMENTAL-CURRENT-SENSOR-DATA carries its fields under "data";
// CURRENT-STATE and STATE-CHANGE carry theirs under "product-state".
type envelope struct {
	Msg          string                     `json:"msg"`
	Time         string                     `json:"time"`
	Data         map[string]json.RawMessage `json:"data"`
	ProductState map[string]json.RawMessage `json:"product-state"`
}

// commandEnvelope is the outer shape of every outbound command.
type commandEnvelope struct {
	Msg  string            `json:"msg"`
	Time string            `json:"time"`
	Data map[string]string `json:"data,omitempty"`
}

// Frame is one decoded inbound message. Exactly one of the variant fields is
// non-nil, matching the wire msg kind.
type Frame struct {
	// Environmental holds sensor readings, nil for state messages.
	Environmental *EnvironmentalFrame

	// State holds actuator state fields, nil for sensor messages.
	State *StateFrame
}

// EnvironmentalFrame carries the raw sensor field strings of one
// ENVIRONMENTAL-CURRENT-SENSOR-DATA message. Values stay strings at this
// layer so sentinel handling is explicit downstream.
type EnvironmentalFrame struct {
	Fields map[string]string
}

// StateFrame carries the actuator fields of a CURRENT-STATE or STATE-CHANGE
// message, reduced to their effective new values. The two wire encodings
// (scalar vs [previous, new] tuple) are already collapsed here; consumers
// never see the difference.
type StateFrame struct {
	// Initial reports whether this was a full CURRENT-STATE snapshot
	// rather than a delta broadcast.
	Initial bool

	Fields map[string]string
}
