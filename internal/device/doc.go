// Package device holds the appliance capability catalogue and the live
// session registry.
//
// Lookup maps a firmware product type code ("438", "527K", ...) to a Profile
// describing what the model can do: heating, humidification, jet focus,
// oscillation, and whether it carries the discrete air quality sensor suite.
// Unknown codes degrade to a plain purifier fan profile rather than failing,
// so newly released models keep basic function.
//
// The Registry tracks one Session per serial number and owns collective
// teardown at shutdown.
package device
