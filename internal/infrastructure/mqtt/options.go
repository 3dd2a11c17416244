package mqtt

import (
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// Dyson appliances speak the pre-3.1.1 dialect whose protocol name on the
// wire is "MQIsdp". Paho selects that dialect with protocol version 3.
const dysonProtocolVersion = 3

// defaultPort is the broker port that every appliance firmware exposes.
const defaultPort = 1883

// Connection tuning. The appliance broker is on the local network, so
// timeouts are short; reconnect backoff stays modest because a sleeping
// appliance can be gone for hours.
const (
	defaultConnectTimeout       = 10 * time.Second
	defaultKeepAlive            = 30 * time.Second
	defaultPingTimeout          = 10 * time.Second
	defaultMaxReconnectInterval = 1 * time.Minute
	defaultOperationTimeout     = 5 * time.Second
	defaultDisconnectQuiesce    = 250 // milliseconds
)

// DeviceOptions describes the appliance endpoint and its credentials.
//
// Fields:
//   - Host: IP address or hostname of the appliance on the local network
//   - Port: Broker port; 0 selects the firmware default 1883
//   - SerialNumber: Appliance serial, doubles as the MQTT username
//   - Password: Decrypted access-point password hash
type DeviceOptions struct {
	Host         string
	Port         int
	SerialNumber string
	Password     string
}

func (o DeviceOptions) validate() error {
	if o.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidOptions)
	}
	if o.SerialNumber == "" {
		return fmt.Errorf("%w: serial number is required", ErrInvalidOptions)
	}
	if o.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidOptions)
	}
	return nil
}

// buildClientOptions translates DeviceOptions into paho client options.
func buildClientOptions(opts DeviceOptions) *pahomqtt.ClientOptions {
	port := opts.Port
	if port == 0 {
		port = defaultPort
	}

	pahoOpts := pahomqtt.NewClientOptions()
	pahoOpts.AddBroker(fmt.Sprintf("tcp://%s:%d", opts.Host, port))

	// Client ID must be unique per connection or the appliance kicks the
	// previous session. A random suffix keeps restarts clean.
	pahoOpts.SetClientID(fmt.Sprintf("purebridge-%s", uuid.New().String()[:8]))

	pahoOpts.SetProtocolVersion(dysonProtocolVersion)
	pahoOpts.SetUsername(opts.SerialNumber)
	pahoOpts.SetPassword(opts.Password)

	pahoOpts.SetConnectTimeout(defaultConnectTimeout)
	pahoOpts.SetKeepAlive(defaultKeepAlive)
	pahoOpts.SetPingTimeout(defaultPingTimeout)

	pahoOpts.SetAutoReconnect(true)
	pahoOpts.SetConnectRetry(true)
	pahoOpts.SetMaxReconnectInterval(defaultMaxReconnectInterval)

	// Deliver messages in order; handlers are quick JSON decodes.
	pahoOpts.SetOrderMatters(true)
	pahoOpts.SetCleanSession(true)

	return pahoOpts
}
