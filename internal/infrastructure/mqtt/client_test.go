package mqtt

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// testOptions returns valid device options pointing at an address nothing
// listens on. Connect does not block on the link, so these tests exercise
// option validation, subscription tracking, and teardown without a broker.
func testOptions() DeviceOptions {
	return DeviceOptions{
		Host:         "127.0.0.1",
		Port:         19997,
		SerialNumber: "NK6-EU-MHA0000A",
		Password:     "dGVzdC1wYXNzd29yZC1oYXNo",
	}
}

// =============================================================================
// Option Validation Tests
// =============================================================================

func TestConnect_MissingHost(t *testing.T) {
	opts := testOptions()
	opts.Host = ""

	_, err := Connect(opts)
	if !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("Connect() error = %v, want ErrInvalidOptions", err)
	}
}

func TestConnect_MissingSerial(t *testing.T) {
	opts := testOptions()
	opts.SerialNumber = ""

	_, err := Connect(opts)
	if !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("Connect() error = %v, want ErrInvalidOptions", err)
	}
}

func TestConnect_MissingPassword(t *testing.T) {
	opts := testOptions()
	opts.Password = ""

	_, err := Connect(opts)
	if !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("Connect() error = %v, want ErrInvalidOptions", err)
	}
}

func TestConnect_DoesNotBlock(t *testing.T) {
	client, err := Connect(testOptions())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	// The appliance is unreachable; the client exists anyway and reports
	// the link as down.
	if client.IsConnected() {
		t.Error("IsConnected() = true for unreachable appliance, want false")
	}
}

func TestBuildClientOptions(t *testing.T) {
	opts := testOptions()
	pahoOpts := buildClientOptions(opts)

	if got := pahoOpts.Username; got != opts.SerialNumber {
		t.Errorf("Username = %q, want serial %q", got, opts.SerialNumber)
	}
	if got := pahoOpts.Password; got != opts.Password {
		t.Errorf("Password = %q, want %q", got, opts.Password)
	}
	if got := pahoOpts.ProtocolVersion; got != dysonProtocolVersion {
		t.Errorf("ProtocolVersion = %d, want %d", got, dysonProtocolVersion)
	}
	if !strings.HasPrefix(pahoOpts.ClientID, "purebridge-") {
		t.Errorf("ClientID = %q, want purebridge- prefix", pahoOpts.ClientID)
	}
	if len(pahoOpts.Servers) != 1 {
		t.Fatalf("Servers count = %d, want 1", len(pahoOpts.Servers))
	}
	if got := pahoOpts.Servers[0].String(); got != "tcp://127.0.0.1:19997" {
		t.Errorf("Broker = %q, want tcp://127.0.0.1:19997", got)
	}
}

func TestBuildClientOptions_DefaultPort(t *testing.T) {
	opts := testOptions()
	opts.Port = 0
	pahoOpts := buildClientOptions(opts)

	if got := pahoOpts.Servers[0].String(); got != "tcp://127.0.0.1:1883" {
		t.Errorf("Broker = %q, want tcp://127.0.0.1:1883", got)
	}
}

func TestBuildClientOptions_UniqueClientIDs(t *testing.T) {
	a := buildClientOptions(testOptions()).ClientID
	b := buildClientOptions(testOptions()).ClientID
	if a == b {
		t.Errorf("ClientID collision: %q", a)
	}
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on empty client error = %v, want nil", err)
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	client := &Client{}
	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestHealthCheck_Disconnected(t *testing.T) {
	client, err := Connect(testOptions())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheck_Cancelled(t *testing.T) {
	client, err := Connect(testOptions())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}

// =============================================================================
// Subscription Tracking Tests
// =============================================================================

func TestSubscribe_RecordedWhileDisconnected(t *testing.T) {
	client, err := Connect(testOptions())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topic := Topics{}.StatusCurrent("438", "NK6-EU-MHA0000A")
	err = client.Subscribe(context.Background(), topic, 0, func(string, []byte) error { return nil })
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if !client.HasSubscription(topic) {
		t.Error("HasSubscription() = false, want true")
	}
	if got := client.SubscriptionCount(); got != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", got)
	}
}

func TestUnsubscribe_RemovesTracking(t *testing.T) {
	client, err := Connect(testOptions())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topic := Topics{}.StatusCurrent("438", "NK6-EU-MHA0000A")
	if err := client.Subscribe(context.Background(), topic, 0, func(string, []byte) error { return nil }); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := client.Unsubscribe(context.Background(), topic); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}

	if client.HasSubscription(topic) {
		t.Error("HasSubscription() = true after Unsubscribe(), want false")
	}
	if got := client.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", got)
	}
}

func TestPublish_Disconnected(t *testing.T) {
	client, err := Connect(testOptions())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topic := Topics{}.Command("438", "NK6-EU-MHA0000A")
	err = client.Publish(context.Background(), topic, 0, []byte(`{"msg":"REQUEST-CURRENT-STATE"}`))
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

// =============================================================================
// Topics Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name: "StatusCurrent",
			builder: func() string {
				return Topics{}.StatusCurrent("438", "NK6-EU-MHA0000A")
			},
			expected: "438/NK6-EU-MHA0000A/status/current",
		},
		{
			name: "StatusFault",
			builder: func() string {
				return Topics{}.StatusFault("455", "JH1-UK-KAB0000A")
			},
			expected: "455/JH1-UK-KAB0000A/status/fault",
		},
		{
			name: "Command",
			builder: func() string {
				return Topics{}.Command("527K", "E6S-EU-RFA0000A")
			},
			expected: "527K/E6S-EU-RFA0000A/command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.builder()
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}
