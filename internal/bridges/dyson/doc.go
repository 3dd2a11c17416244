// Package dyson implements the appliance protocol: the codec for the three
// status message kinds, the derived quality scales, and the per-device
// session controller.
//
// The codec layer (Decode, DeriveEnvironment, DeriveState, Encode*) is
// stateless. The wire format is compact JSON with string-encoded values
// throughout; sentinel strings (OFF, INIT, INV, INH) in numeric fields mean
// "reading unavailable" and suppress the derived update instead of parsing.
// State arrives in two encodings, a full CURRENT-STATE snapshot of scalars
// and a STATE-CHANGE delta of [previous, new] tuples; both collapse through
// one extraction step so they cannot diverge.
//
// A Session owns one appliance. Everything runs on a single event loop
// goroutine fed by transport callbacks, set intents, and timers. Two timers
// exist per session: the poll ticker, armed only while connected, and the
// deferred target-mode write that works around a firmware race (an Active
// command arriving within 250ms of a TargetMode command forces Auto mode, so
// the mode write is held and a power toggle in the window drops it). Both
// timers are cancelled on teardown.
package dyson
