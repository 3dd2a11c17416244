package mqtt

import "fmt"

// Topics builds the appliance topic strings.
//
// The firmware namespaces every topic under "{productType}/{serialNumber}".
// The appliance publishes state on status/current and accepts command
// envelopes on command.
type Topics struct{}

// StatusCurrent returns the topic the appliance publishes state and sensor
// messages on.
func (Topics) StatusCurrent(productType, serialNumber string) string {
	return fmt.Sprintf("%s/%s/status/current", productType, serialNumber)
}

// StatusFault returns the topic the appliance publishes fault reports on.
func (Topics) StatusFault(productType, serialNumber string) string {
	return fmt.Sprintf("%s/%s/status/fault", productType, serialNumber)
}

// Command returns the topic the appliance accepts command envelopes on.
func (Topics) Command(productType, serialNumber string) string {
	return fmt.Sprintf("%s/%s/command", productType, serialNumber)
}
