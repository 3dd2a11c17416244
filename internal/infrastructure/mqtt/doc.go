// Package mqtt provides the per-appliance MQTT transport.
//
// Every Dyson appliance runs its own broker on port 1883, speaking the legacy
// MQTT 3.1 dialect (protocol name "MQIsdp") and authenticating with the
// serial number as username and the decrypted access-point password hash as
// password. One Client maps to one appliance.
//
// The client tracks subscriptions and restores them on reconnect, recovers
// from handler panics, and exposes connect/disconnect callbacks so the
// session layer can drive its state machine off link events. Connect does not
// block waiting for the appliance: a powered-off unit comes up whenever it
// reappears on the network.
package mqtt
