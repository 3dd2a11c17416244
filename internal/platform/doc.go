// Package platform orchestrates the configured Dyson appliances.
//
// The platform resolves each device's connection identity (a local
// credentials blob or a cloud directory entry), opens a per-appliance MQTT
// transport, and runs one session per device. Session updates fan out into
// an in-memory snapshot store read by the HTTP API, and optionally into a
// telemetry writer.
//
// The accessory declaration derived for each device fixes its external
// surface up front: controls and sensors are declared from the capability
// profile and the per-device options, and intents for undeclared controls
// are rejected before they reach a session.
package platform
