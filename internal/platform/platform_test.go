package platform

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/purebridge/purebridge-core/internal/bridges/dyson"
	"github.com/purebridge/purebridge-core/internal/cloud"
	"github.com/purebridge/purebridge-core/internal/infrastructure/config"
	"github.com/purebridge/purebridge-core/internal/infrastructure/mqtt"
)

// =============================================================================
// Test Fixtures
// =============================================================================

type fakeTransport struct {
	mu        sync.Mutex
	opts      mqtt.DeviceOptions
	published [][]byte
	onConnect func()
	closed    bool
}

func (f *fakeTransport) Publish(_ context.Context, _ string, _ byte, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, payload)
	return nil
}

func (f *fakeTransport) Subscribe(context.Context, string, byte, mqtt.MessageHandler) error {
	return nil
}

func (f *fakeTransport) SetOnConnect(callback func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onConnect = callback
}

func (f *fakeTransport) SetOnDisconnect(func(err error)) {}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// transportRecorder hands out fake transports and remembers them by serial.
type transportRecorder struct {
	mu         sync.Mutex
	transports map[string]*fakeTransport
}

func newTransportRecorder() *transportRecorder {
	return &transportRecorder{transports: make(map[string]*fakeTransport)}
}

func (r *transportRecorder) factory(opts mqtt.DeviceOptions) (dyson.Transport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ft := &fakeTransport{opts: opts}
	r.transports[opts.SerialNumber] = ft
	return ft, nil
}

func (r *transportRecorder) get(serial string) *fakeTransport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transports[serial]
}

type fakeDirectory struct {
	devices []cloud.DirectoryDevice
	err     error
	calls   int
}

func (f *fakeDirectory) DevicesWithRetry(context.Context) ([]cloud.DirectoryDevice, error) {
	f.calls++
	return f.devices, f.err
}

type recordTelemetry struct {
	mu      sync.Mutex
	serials []string
}

func (r *recordTelemetry) WriteEnvironment(serialNumber string, _ dyson.Environment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.serials = append(r.serials, serialNumber)
}

// credentialsBlob builds the base64 blob the configuration carries.
func credentialsBlob(t *testing.T, serial, productType, name string) string {
	t.Helper()
	blob, err := json.Marshal(map[string]string{
		"Name":        name,
		"Serial":      serial,
		"ProductType": productType,
		"Version":     "21.04.03",
		"password":    "hunter2hash",
	})
	if err != nil {
		t.Fatalf("marshal blob: %v", err)
	}
	return base64.StdEncoding.EncodeToString(blob)
}

// encryptedLocalCredentials builds a directory-style ciphertext with the
// scheme's fixed key and zero IV.
func encryptedLocalCredentials(t *testing.T, hash string) string {
	t.Helper()

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i + 1)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}

	plaintext := `{"apPasswordHash":"` + hash + `"}`
	pad := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := []byte(plaintext)
	for i := 0; i < pad; i++ {
		padded = append(padded, byte(pad))
	}

	iv := make([]byte, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return base64.StdEncoding.EncodeToString(ciphertext)
}

// =============================================================================
// Startup and Reconciliation Tests
// =============================================================================

func TestStartWithLocalCredentials(t *testing.T) {
	recorder := newTransportRecorder()
	p := New(config.DysonConfig{
		Devices: []config.DeviceConfig{
			{IPAddress: "192.168.1.50", Credentials: credentialsBlob(t, "NK6-EU-MHA0000A", "438", "Office")},
		},
	}, Options{TransportFactory: recorder.factory})
	t.Cleanup(p.Close)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ft := recorder.get("NK6-EU-MHA0000A")
	if ft == nil {
		t.Fatal("transport was not opened")
	}
	if ft.opts.Host != "192.168.1.50" || ft.opts.Password != "hunter2hash" {
		t.Errorf("transport opts = %+v", ft.opts)
	}

	devices := p.Devices()
	if len(devices) != 1 {
		t.Fatalf("Devices() count = %d, want 1", len(devices))
	}
	if devices[0].Name != "Office" || devices[0].ProductType != "438" {
		t.Errorf("device = %+v", devices[0])
	}
	if devices[0].Profile.Model != "Dyson Pure Cool (Tower)" {
		t.Errorf("model = %q", devices[0].Profile.Model)
	}
}

func TestStartTwice(t *testing.T) {
	p := New(config.DysonConfig{}, Options{TransportFactory: newTransportRecorder().factory})
	t.Cleanup(p.Close)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	if err := p.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestStartWithDirectoryEntry(t *testing.T) {
	recorder := newTransportRecorder()
	directory := &fakeDirectory{devices: []cloud.DirectoryDevice{
		{
			Serial:           "JH1-EU-KAB0000A",
			Name:             "Bedroom",
			ProductType:      "527",
			LocalCredentials: encryptedLocalCredentials(t, "directoryhash"),
		},
	}}

	p := New(config.DysonConfig{
		Devices: []config.DeviceConfig{
			{IPAddress: "192.168.1.51", SerialNumber: "JH1-EU-KAB0000A"},
		},
	}, Options{TransportFactory: recorder.factory, Directory: directory})
	t.Cleanup(p.Close)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ft := recorder.get("JH1-EU-KAB0000A")
	if ft == nil {
		t.Fatal("transport was not opened")
	}
	if ft.opts.Password != "directoryhash" {
		t.Errorf("password = %q, want the decrypted hash", ft.opts.Password)
	}

	info, err := p.Device("JH1-EU-KAB0000A")
	if err != nil {
		t.Fatalf("Device() error = %v", err)
	}
	if info.Name != "Bedroom" || !info.Profile.HasHeating {
		t.Errorf("device = %+v", info)
	}
}

func TestDirectoryNotConsultedWithLocalBlobs(t *testing.T) {
	directory := &fakeDirectory{}
	p := New(config.DysonConfig{
		Devices: []config.DeviceConfig{
			{IPAddress: "192.168.1.50", Credentials: credentialsBlob(t, "NK6-EU-MHA0000A", "438", "Office")},
		},
	}, Options{TransportFactory: newTransportRecorder().factory, Directory: directory})
	t.Cleanup(p.Close)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if directory.calls != 0 {
		t.Errorf("directory calls = %d, want 0", directory.calls)
	}
}

func TestBadDeviceSkippedOthersStart(t *testing.T) {
	recorder := newTransportRecorder()
	p := New(config.DysonConfig{
		Devices: []config.DeviceConfig{
			{IPAddress: "192.168.1.50", Credentials: "not base64!"},
			{IPAddress: "192.168.1.51", Credentials: credentialsBlob(t, "NK6-EU-MHA0000A", "438", "Office")},
		},
	}, Options{TransportFactory: recorder.factory})
	t.Cleanup(p.Close)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	devices := p.Devices()
	if len(devices) != 1 {
		t.Fatalf("Devices() count = %d, want only the valid device", len(devices))
	}
	if devices[0].SerialNumber != "NK6-EU-MHA0000A" {
		t.Errorf("serial = %q", devices[0].SerialNumber)
	}
}

func TestReconcileRemovesAbsentDevices(t *testing.T) {
	recorder := newTransportRecorder()
	first := config.DeviceConfig{IPAddress: "192.168.1.50", Credentials: credentialsBlob(t, "NK6-EU-MHA0000A", "438", "Office")}
	second := config.DeviceConfig{IPAddress: "192.168.1.51", Credentials: credentialsBlob(t, "JH1-EU-KAB0000A", "527", "Bedroom")}

	p := New(config.DysonConfig{Devices: []config.DeviceConfig{first, second}},
		Options{TransportFactory: recorder.factory})
	t.Cleanup(p.Close)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := len(p.Devices()); got != 2 {
		t.Fatalf("Devices() count = %d, want 2", got)
	}

	if err := p.Reconcile(context.Background(), []config.DeviceConfig{first}); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	devices := p.Devices()
	if len(devices) != 1 || devices[0].SerialNumber != "NK6-EU-MHA0000A" {
		t.Fatalf("Devices() = %+v, want only NK6-EU-MHA0000A", devices)
	}
	if ft := recorder.get("JH1-EU-KAB0000A"); !ft.isClosed() {
		t.Error("removed device's transport was not closed")
	}
	if _, err := p.Device("JH1-EU-KAB0000A"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Device() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestCloseShutsSessionsDown(t *testing.T) {
	recorder := newTransportRecorder()
	p := New(config.DysonConfig{
		Devices: []config.DeviceConfig{
			{IPAddress: "192.168.1.50", Credentials: credentialsBlob(t, "NK6-EU-MHA0000A", "438", "Office")},
		},
	}, Options{TransportFactory: recorder.factory})

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	p.Close()

	if !recorder.get("NK6-EU-MHA0000A").isClosed() {
		t.Error("transport still open after Close")
	}
	if got := len(p.Devices()); got != 0 {
		t.Errorf("Devices() count after Close = %d, want 0", got)
	}
}

// =============================================================================
// Intent Routing Tests
// =============================================================================

func TestApplyUnknownDevice(t *testing.T) {
	p := New(config.DysonConfig{}, Options{TransportFactory: newTransportRecorder().factory})
	t.Cleanup(p.Close)

	err := p.Apply("NOPE", dyson.Intent{Control: dyson.ControlPower, On: true})
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Apply() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestApplyUndeclaredControl(t *testing.T) {
	recorder := newTransportRecorder()
	p := New(config.DysonConfig{
		Devices: []config.DeviceConfig{
			// A 438 has no heater, so heating controls are never declared.
			{IPAddress: "192.168.1.50", Credentials: credentialsBlob(t, "NK6-EU-MHA0000A", "438", "Office")},
		},
	}, Options{TransportFactory: recorder.factory})
	t.Cleanup(p.Close)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	err := p.Apply("NK6-EU-MHA0000A", dyson.Intent{Control: dyson.ControlHeatingMode, On: true})
	if !errors.Is(err, ErrControlNotDeclared) {
		t.Errorf("Apply() error = %v, want ErrControlNotDeclared", err)
	}
}

func TestApplyDeclaredControlReachesSession(t *testing.T) {
	recorder := newTransportRecorder()
	p := New(config.DysonConfig{
		Devices: []config.DeviceConfig{
			{IPAddress: "192.168.1.50", Credentials: credentialsBlob(t, "NK6-EU-MHA0000A", "438", "Office")},
		},
	}, Options{TransportFactory: recorder.factory})
	t.Cleanup(p.Close)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ft := recorder.get("NK6-EU-MHA0000A")
	ft.mu.Lock()
	connect := ft.onConnect
	ft.mu.Unlock()
	connect()

	if err := p.Apply("NK6-EU-MHA0000A", dyson.Intent{Control: dyson.ControlPower, On: true}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	deadline := time.After(time.Second)
	for {
		ft.mu.Lock()
		n := len(ft.published)
		ft.mu.Unlock()
		if n >= 2 { // initial state request plus the power command
			break
		}
		select {
		case <-deadline:
			t.Fatal("power command never published")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// =============================================================================
// Sink Fanout Tests
// =============================================================================

func TestSinkUpdatesSnapshotAndTelemetry(t *testing.T) {
	telemetry := &recordTelemetry{}
	p := New(config.DysonConfig{}, Options{
		TransportFactory: newTransportRecorder().factory,
		Telemetry:        telemetry,
	})
	t.Cleanup(p.Close)

	temp := 21.5
	p.EnvironmentUpdated("NK6-EU-MHA0000A", dyson.Environment{TemperatureCelsius: &temp})

	on := true
	p.StateUpdated("NK6-EU-MHA0000A", dyson.State{Power: &on})
	p.ConnectionChanged("NK6-EU-MHA0000A", dyson.StateConnected)

	snap, ok := p.store.get("NK6-EU-MHA0000A")
	if !ok {
		t.Fatal("snapshot missing")
	}
	if snap.Environment == nil || *snap.Environment.TemperatureCelsius != 21.5 {
		t.Errorf("environment = %+v", snap.Environment)
	}
	if snap.State == nil || snap.State.Power == nil || !*snap.State.Power {
		t.Errorf("state = %+v", snap.State)
	}
	if snap.Connection != dyson.StateConnected {
		t.Errorf("connection = %v", snap.Connection)
	}

	telemetry.mu.Lock()
	defer telemetry.mu.Unlock()
	if len(telemetry.serials) != 1 || telemetry.serials[0] != "NK6-EU-MHA0000A" {
		t.Errorf("telemetry writes = %v", telemetry.serials)
	}
}

func TestStateMergePreservesEarlierFields(t *testing.T) {
	store := newSnapshotStore()

	on := true
	speed := 40
	store.setState("X", dyson.State{Power: &on})
	store.setState("X", dyson.State{FanSpeedPercent: &speed})

	snap, _ := store.get("X")
	if snap.State.Power == nil || !*snap.State.Power {
		t.Error("power dropped by later partial update")
	}
	if snap.State.FanSpeedPercent == nil || *snap.State.FanSpeedPercent != 40 {
		t.Error("fan speed not applied")
	}
}
