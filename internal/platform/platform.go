package platform

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/purebridge/purebridge-core/internal/bridges/dyson"
	"github.com/purebridge/purebridge-core/internal/cloud"
	"github.com/purebridge/purebridge-core/internal/device"
	"github.com/purebridge/purebridge-core/internal/infrastructure/config"
	"github.com/purebridge/purebridge-core/internal/infrastructure/mqtt"
)

// TransportFactory opens the MQTT transport for one appliance. Swapped in
// tests; the default dials the appliance's built-in broker.
type TransportFactory func(opts mqtt.DeviceOptions) (dyson.Transport, error)

// DirectoryLister provides the cloud device listing. Satisfied by
// *cloud.DirectoryClient.
type DirectoryLister interface {
	DevicesWithRetry(ctx context.Context) ([]cloud.DirectoryDevice, error)
}

// Telemetry receives decoded environmental readings for history storage.
type Telemetry interface {
	WriteEnvironment(serialNumber string, env dyson.Environment)
}

// Logger is the minimal logging interface used by the platform.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options carries the platform's optional collaborators.
type Options struct {
	// Directory resolves devices configured by serial number only. Nil
	// when every device carries a local credentials blob.
	Directory DirectoryLister

	// Telemetry receives environmental readings. Nil disables history.
	Telemetry Telemetry

	// Logger defaults to a no-op logger.
	Logger Logger

	// TransportFactory defaults to connecting a real MQTT client.
	TransportFactory TransportFactory
}

// binding ties one running session to its declared surface.
type binding struct {
	session     *dyson.Session
	accessory   Accessory
	name        string
	productType string
}

// Platform owns the lifecycle of every configured appliance: it resolves
// credentials, opens transports, starts sessions, and tears everything down
// on shutdown. It also implements dyson.Sink so session updates land in the
// snapshot store and, when enabled, the telemetry writer.
type Platform struct {
	cfg       config.DysonConfig
	registry  *device.Registry
	store     *snapshotStore
	directory DirectoryLister
	telemetry Telemetry
	logger    Logger
	transport TransportFactory

	mu       sync.Mutex
	bindings map[string]*binding
	started  bool
}

// New creates a platform for the given Dyson configuration.
func New(cfg config.DysonConfig, opts Options) *Platform {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.TransportFactory == nil {
		opts.TransportFactory = func(o mqtt.DeviceOptions) (dyson.Transport, error) {
			return mqtt.Connect(o)
		}
	}

	registry := device.NewRegistry()
	registry.SetLogger(opts.Logger)

	return &Platform{
		cfg:       cfg,
		registry:  registry,
		store:     newSnapshotStore(),
		directory: opts.Directory,
		telemetry: opts.Telemetry,
		logger:    opts.Logger,
		transport: opts.TransportFactory,
		bindings:  make(map[string]*binding),
	}
}

// Start resolves every configured device and brings its session up. A
// device whose credentials cannot be resolved is skipped with a warning;
// one bad entry never takes down the rest.
func (p *Platform) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.started = true
	p.mu.Unlock()

	return p.Reconcile(ctx, p.cfg.Devices)
}

// Reconcile brings the running sessions in line with the given device list:
// new devices are started, devices no longer present are closed and
// removed. Devices already running are left untouched.
func (p *Platform) Reconcile(ctx context.Context, devices []config.DeviceConfig) error {
	directory, err := p.fetchDirectory(ctx, devices)
	if err != nil {
		return err
	}

	desired := make(map[string]bool, len(devices))

	for _, dev := range devices {
		id, err := p.resolveIdentity(dev, directory)
		if err != nil {
			p.logger.Warn("skipping device, credentials could not be resolved",
				"ip_address", dev.IPAddress,
				"serial", dev.SerialNumber,
				"error", err,
			)
			continue
		}

		desired[id.serial] = true

		p.mu.Lock()
		_, running := p.bindings[id.serial]
		p.mu.Unlock()
		if running {
			continue
		}

		if err := p.startDevice(dev, id); err != nil {
			p.logger.Warn("skipping device, session could not be started",
				"serial", id.serial,
				"error", err,
			)
		}
	}

	// Remove bindings for devices no longer present.
	for _, serial := range p.registry.Serials() {
		if desired[serial] {
			continue
		}
		if err := p.removeDevice(serial); err != nil {
			p.logger.Warn("removing stale device failed", "serial", serial, "error", err)
		}
	}

	return nil
}

// fetchDirectory returns the cloud listing keyed by serial, but only when
// some device actually needs it. Devices with a local credentials blob
// never touch the cloud.
func (p *Platform) fetchDirectory(ctx context.Context, devices []config.DeviceConfig) (map[string]cloud.DirectoryDevice, error) {
	needed := false
	for _, dev := range devices {
		if dev.Credentials == "" {
			needed = true
			break
		}
	}
	if !needed {
		return nil, nil
	}
	if p.directory == nil {
		return nil, nil
	}

	listed, err := p.directory.DevicesWithRetry(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing device directory: %w", err)
	}

	directory := make(map[string]cloud.DirectoryDevice, len(listed))
	for _, entry := range listed {
		directory[entry.Serial] = entry
	}
	return directory, nil
}

// identity is the resolved connection identity of one appliance.
type identity struct {
	serial      string
	productType string
	name        string
	password    string
}

func (p *Platform) resolveIdentity(dev config.DeviceConfig, directory map[string]cloud.DirectoryDevice) (identity, error) {
	if dev.Credentials != "" {
		creds, err := cloud.DecodeCredentials(dev.Credentials)
		if err != nil {
			return identity{}, err
		}
		return identity{
			serial:      creds.Serial,
			productType: creds.ProductType,
			name:        creds.Name,
			password:    creds.Password,
		}, nil
	}

	entry, ok := directory[dev.SerialNumber]
	if !ok {
		return identity{}, fmt.Errorf("serial %s not in device directory", dev.SerialNumber)
	}
	password, err := cloud.DecryptLocalCredentials(entry.LocalCredentials)
	if err != nil {
		return identity{}, err
	}
	return identity{
		serial:      entry.Serial,
		productType: entry.ProductType,
		name:        entry.Name,
		password:    password,
	}, nil
}

func (p *Platform) startDevice(dev config.DeviceConfig, id identity) error {
	transport, err := p.transport(mqtt.DeviceOptions{
		Host:         dev.IPAddress,
		SerialNumber: id.serial,
		Password:     id.password,
	})
	if err != nil {
		return fmt.Errorf("opening transport: %w", err)
	}

	session := dyson.NewSession(dyson.Config{
		SerialNumber:                    id.serial,
		ProductType:                     id.productType,
		EnableAutoModeWhenActivating:    dev.EnableAutoModeWhenActivating,
		EnableOscillationWhenActivating: dev.EnableOscillationWhenActivating,
		EnableNightModeWhenActivating:   dev.EnableNightModeWhenActivating,
		IsHeatingSafetyIgnored:          dev.IsHeatingSafetyIgnored,
		IsFullRangeHumidityEnabled:      dev.IsFullRangeHumidityEnabled,
		TemperatureOffset:               dev.TemperatureOffset,
		HumidityOffset:                  dev.HumidityOffset,
		PollInterval:                    dev.GetUpdateInterval(),
	}, transport, p)
	session.SetLogger(p.logger)

	if err := p.registry.Add(session); err != nil {
		if closeErr := transport.Close(); closeErr != nil {
			p.logger.Warn("closing transport after registry rejection failed",
				"serial", id.serial, "error", closeErr)
		}
		return err
	}

	b := &binding{
		session:     session,
		accessory:   BuildAccessory(id.serial, id.name, session.Profile(), dev),
		name:        id.name,
		productType: id.productType,
	}
	p.mu.Lock()
	p.bindings[id.serial] = b
	p.mu.Unlock()

	session.Start()
	p.logger.Info("device session started",
		"serial", id.serial,
		"product_type", id.productType,
		"model", session.Profile().Model,
	)
	return nil
}

func (p *Platform) removeDevice(serialNumber string) error {
	p.mu.Lock()
	delete(p.bindings, serialNumber)
	p.mu.Unlock()
	p.store.remove(serialNumber)
	return p.registry.Remove(serialNumber)
}

// Apply routes a control intent to the device's session. Intents for
// controls the accessory declaration does not expose are rejected before
// they reach the session.
func (p *Platform) Apply(serialNumber string, intent dyson.Intent) error {
	p.mu.Lock()
	b, ok := p.bindings[serialNumber]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, serialNumber)
	}
	if !b.accessory.HasControl(intent.Control) {
		return fmt.Errorf("%w: %s on %s", ErrControlNotDeclared, intent.Control, serialNumber)
	}
	return b.session.Apply(intent)
}

// DeviceInfo is the external view of one running device.
type DeviceInfo struct {
	SerialNumber string         `json:"serial_number"`
	Name         string         `json:"name"`
	ProductType  string         `json:"product_type"`
	Profile      device.Profile `json:"profile"`
	Connection   string         `json:"connection"`
	Accessory    Accessory      `json:"accessory"`
	Snapshot     Snapshot       `json:"snapshot"`
}

// Devices returns the current device views sorted by serial number.
func (p *Platform) Devices() []DeviceInfo {
	p.mu.Lock()
	infos := make([]DeviceInfo, 0, len(p.bindings))
	for serial, b := range p.bindings {
		snap, _ := p.store.get(serial)
		infos = append(infos, DeviceInfo{
			SerialNumber: serial,
			Name:         b.accessory.Name,
			ProductType:  b.productType,
			Profile:      b.session.Profile(),
			Connection:   b.session.ConnectionState().String(),
			Accessory:    b.accessory,
			Snapshot:     snap,
		})
	}
	p.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].SerialNumber < infos[j].SerialNumber
	})
	return infos
}

// Device returns the view of one device.
func (p *Platform) Device(serialNumber string) (DeviceInfo, error) {
	p.mu.Lock()
	b, ok := p.bindings[serialNumber]
	p.mu.Unlock()
	if !ok {
		return DeviceInfo{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, serialNumber)
	}
	snap, _ := p.store.get(serialNumber)
	return DeviceInfo{
		SerialNumber: serialNumber,
		Name:         b.accessory.Name,
		ProductType:  b.productType,
		Profile:      b.session.Profile(),
		Connection:   b.session.ConnectionState().String(),
		Accessory:    b.accessory,
		Snapshot:     snap,
	}, nil
}

// Close shuts every session down. Safe to call more than once.
func (p *Platform) Close() {
	p.registry.CloseAll()
	p.mu.Lock()
	p.bindings = make(map[string]*binding)
	p.mu.Unlock()
}

// EnvironmentUpdated implements dyson.Sink.
func (p *Platform) EnvironmentUpdated(serialNumber string, env dyson.Environment) {
	p.store.setEnvironment(serialNumber, env)
	if p.telemetry != nil {
		p.telemetry.WriteEnvironment(serialNumber, env)
	}
}

// StateUpdated implements dyson.Sink.
func (p *Platform) StateUpdated(serialNumber string, st dyson.State) {
	p.store.setState(serialNumber, st)
}

// ConnectionChanged implements dyson.Sink.
func (p *Platform) ConnectionChanged(serialNumber string, state dyson.ConnectionState) {
	p.store.setConnection(serialNumber, state)
	p.logger.Info("device connection state changed",
		"serial", serialNumber,
		"state", state.String(),
	)
}
