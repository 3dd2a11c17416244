package dyson

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/purebridge/purebridge-core/internal/device"
	"github.com/purebridge/purebridge-core/internal/infrastructure/mqtt"
)

// Timing defaults.
const (
	// defaultDeferDelay is the window within which a power toggle cancels
	// a pending target-mode write (firmware race workaround).
	defaultDeferDelay = 250 * time.Millisecond

	// publishTimeout bounds a single command publish.
	publishTimeout = 5 * time.Second

	// eventBuffer sizes the session's event channel. Transport callbacks
	// post into it; the buffer absorbs bursts around reconnects.
	eventBuffer = 16
)

// Transport is the session's view of the per-appliance MQTT client.
type Transport interface {
	Publish(ctx context.Context, topic string, qos byte, payload []byte) error
	Subscribe(ctx context.Context, topic string, qos byte, handler mqtt.MessageHandler) error
	SetOnConnect(callback func())
	SetOnDisconnect(callback func(err error))
	Close() error
}

// Sink receives normalized updates pushed by a session. The accessory layer
// implements it; sessions never reach into accessory state directly.
type Sink interface {
	EnvironmentUpdated(serialNumber string, env Environment)
	StateUpdated(serialNumber string, st State)
	ConnectionChanged(serialNumber string, state ConnectionState)
}

// Logger defines the logging interface used by the session.
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

// Config carries the per-device options a session honours.
type Config struct {
	SerialNumber string
	ProductType  string

	EnableAutoModeWhenActivating    bool
	EnableOscillationWhenActivating bool
	EnableNightModeWhenActivating   bool
	IsHeatingSafetyIgnored          bool
	IsFullRangeHumidityEnabled      bool

	// TemperatureOffset corrects sensor readings and targets, in °C.
	TemperatureOffset float64

	// HumidityOffset corrects humidity readings, in percent points.
	HumidityOffset float64

	// PollInterval re-requests the current state while connected.
	// Zero disables polling.
	PollInterval time.Duration

	// DeferDelay overrides the target-mode deferral window. Zero selects
	// the default 250ms.
	DeferDelay time.Duration
}

// Session owns one appliance: its transport connection, its poll timer, the
// deferred-write workaround, and the translation of set intents into
// protocol commands.
//
// All protocol work runs on a single event loop goroutine; transport
// callbacks and Apply only post events into it, so session state needs no
// locking beyond the connection-state snapshot.
type Session struct {
	cfg       Config
	profile   device.Profile
	transport Transport
	sink      Sink
	logger    Logger

	events chan event
	cancel context.CancelFunc
	ctx    context.Context
	done   chan struct{}

	closeOnce sync.Once
	started   atomic.Bool

	// stateMu guards the snapshot read by SerialNumber/ConnectionState
	// callers outside the loop.
	stateMu sync.RWMutex
	state   ConnectionState

	// Loop-local fields, touched only by run().
	last        map[string]string
	pendingMode *pendingMode
	deferSeq    uint64
	pollC       <-chan time.Time
	pollTicker  *time.Ticker
}

// pendingMode is a deferred target-mode command awaiting its timer.
type pendingMode struct {
	seq   uint64
	timer *time.Timer
	data  map[string]string
}

// Session events. Everything the loop reacts to arrives as one of these.
type event interface{ isEvent() }

type connUpEvent struct{}
type connDownEvent struct{ err error }
type messageEvent struct{ payload []byte }
type intentEvent struct{ intent Intent }
type deferredEvent struct{ seq uint64 }

func (connUpEvent) isEvent()   {}
func (connDownEvent) isEvent() {}
func (messageEvent) isEvent()  {}
func (intentEvent) isEvent()   {}
func (deferredEvent) isEvent() {}

// NewSession creates a session for one appliance.
//
// The capability profile is looked up from the product type; it gates which
// intents the session accepts for its whole lifetime.
//
// Parameters:
//   - cfg: Per-device options
//   - transport: Connected or connecting appliance MQTT client
//   - sink: Receiver for normalized updates
//
// Returns:
//   - *Session: Session ready for Start
func NewSession(cfg Config, transport Transport, sink Sink) *Session {
	if cfg.DeferDelay == 0 {
		cfg.DeferDelay = defaultDeferDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:       cfg,
		profile:   device.Lookup(cfg.ProductType),
		transport: transport,
		sink:      sink,
		logger:    noopLogger{},
		events:    make(chan event, eventBuffer),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		state:     StateDisconnected,
		last:      make(map[string]string),
	}
}

// SetLogger sets the logger for the session. Call before Start.
func (s *Session) SetLogger(logger Logger) {
	s.logger = logger
}

// SerialNumber returns the appliance serial this session owns.
func (s *Session) SerialNumber() string {
	return s.cfg.SerialNumber
}

// Profile returns the immutable capability profile.
func (s *Session) Profile() device.Profile {
	return s.profile
}

// ConnectionState returns the current link state.
func (s *Session) ConnectionState() ConnectionState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Start wires the transport callbacks and launches the event loop.
func (s *Session) Start() {
	s.setState(StateConnecting)

	s.transport.SetOnConnect(func() {
		s.post(connUpEvent{})
	})
	s.transport.SetOnDisconnect(func(err error) {
		s.post(connDownEvent{err: err})
	})

	s.started.Store(true)
	go s.run()
}

// Close ends the session: cancels the loop, disarms both timers, and
// force-closes the transport. Idempotent and safe to call concurrently.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		if s.started.Load() {
			<-s.done
		}
		s.setState(StateEnded)
		err = s.transport.Close()
		s.logger.Debug("session ended", "serial_number", s.cfg.SerialNumber)
	})
	return err
}

// Apply submits one externally observed control change.
//
// Dispatch is fire and forget: the device confirms via telemetry on the
// status topic, not a synchronous return. Only structural problems are
// reported here.
//
// Parameters:
//   - intent: The control and its requested value
//
// Returns:
//   - error: ErrCapabilityMissing if the profile lacks the control,
//     ErrSessionClosed after Close
func (s *Session) Apply(intent Intent) error {
	if err := s.gate(intent.Control); err != nil {
		return err
	}

	select {
	case <-s.ctx.Done():
		return ErrSessionClosed
	case s.events <- intentEvent{intent: intent}:
		return nil
	}
}

// post delivers an event to the loop, dropping it if the session is closed.
func (s *Session) post(ev event) {
	select {
	case <-s.ctx.Done():
	case s.events <- ev:
	}
}

func (s *Session) setState(state ConnectionState) {
	s.stateMu.Lock()
	changed := s.state != state
	s.state = state
	s.stateMu.Unlock()

	if changed && s.sink != nil {
		s.sink.ConnectionChanged(s.cfg.SerialNumber, state)
	}
}

// run is the session's single event loop. All timers and protocol state are
// owned here; teardown disarms both timers before returning.
func (s *Session) run() {
	defer close(s.done)
	defer s.disarmPoll()
	defer s.clearPendingMode("session teardown")

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.pollC:
			s.requestCurrentState()
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

func (s *Session) handle(ev event) {
	switch ev := ev.(type) {
	case connUpEvent:
		s.handleConnected()
	case connDownEvent:
		s.logger.Warn("appliance link lost",
			"serial_number", s.cfg.SerialNumber,
			"error", ev.err,
		)
		s.setState(StateReconnecting)
		s.disarmPoll()
	case messageEvent:
		s.handleMessage(ev.payload)
	case intentEvent:
		s.handleIntent(ev.intent)
	case deferredEvent:
		s.handleDeferred(ev.seq)
	}
}

// handleConnected runs the Connected entry path: subscribe, snapshot
// request, poll timer. This is the only place the poll timer is armed.
func (s *Session) handleConnected() {
	s.setState(StateConnected)
	s.logger.Info("appliance link established",
		"serial_number", s.cfg.SerialNumber,
		"product_type", s.cfg.ProductType,
	)

	topic := mqtt.Topics{}.StatusCurrent(s.cfg.ProductType, s.cfg.SerialNumber)
	ctx, cancelSub := context.WithTimeout(s.ctx, publishTimeout)
	err := s.transport.Subscribe(ctx, topic, 0, func(_ string, payload []byte) error {
		s.post(messageEvent{payload: payload})
		return nil
	})
	cancelSub()
	if err != nil {
		s.logger.Warn("status subscription failed",
			"serial_number", s.cfg.SerialNumber,
			"error", err,
		)
	}

	s.requestCurrentState()
	s.armPoll()
}

func (s *Session) armPoll() {
	s.disarmPoll()
	if s.cfg.PollInterval <= 0 {
		return
	}
	s.pollTicker = time.NewTicker(s.cfg.PollInterval)
	s.pollC = s.pollTicker.C
}

func (s *Session) disarmPoll() {
	if s.pollTicker != nil {
		s.pollTicker.Stop()
		s.pollTicker = nil
		s.pollC = nil
	}
}

// requestCurrentState publishes a snapshot request. Permitted only while
// connected; polls racing a disconnect are dropped.
func (s *Session) requestCurrentState() {
	if s.ConnectionState() != StateConnected {
		return
	}

	payload, err := EncodeRequestCurrentState()
	if err != nil {
		s.logger.Error("snapshot request encode failed",
			"serial_number", s.cfg.SerialNumber,
			"error", err,
		)
		return
	}
	s.publish(payload)
}

// publish sends one payload to the command topic. At-most-once: failures are
// logged and not retried, the next poll re-confirms authoritative state.
func (s *Session) publish(payload []byte) {
	topic := mqtt.Topics{}.Command(s.cfg.ProductType, s.cfg.SerialNumber)

	ctx, cancelPub := context.WithTimeout(s.ctx, publishTimeout)
	defer cancelPub()

	if err := s.transport.Publish(ctx, topic, 0, payload); err != nil {
		s.logger.Warn("command publish failed",
			"serial_number", s.cfg.SerialNumber,
			"error", err,
		)
	}
}

// handleMessage decodes one status payload and pushes the derived update.
// Decode anomalies suppress the specific update rather than propagating.
func (s *Session) handleMessage(payload []byte) {
	frame, err := Decode(payload)
	if err != nil {
		s.logger.Debug("undecodable status message",
			"serial_number", s.cfg.SerialNumber,
			"error", err,
		)
		return
	}

	switch {
	case frame.Environmental != nil:
		env := DeriveEnvironment(s.profile, frame.Environmental, s.cfg.TemperatureOffset, s.cfg.HumidityOffset)
		if s.sink != nil {
			s.sink.EnvironmentUpdated(s.cfg.SerialNumber, env)
		}

	case frame.State != nil:
		// The raw field cache feeds side-effect decisions (power state
		// for night mode, idempotent power toggles).
		for name, value := range frame.State.Fields {
			s.last[name] = value
		}
		st := DeriveState(s.profile, frame.State, s.cfg.TemperatureOffset)
		if s.sink != nil {
			s.sink.StateUpdated(s.cfg.SerialNumber, st)
		}
	}
}

// handleDeferred fires a deferred target-mode write. The sequence compare
// and clear is the race-workaround invariant: a power toggle that arrived in
// the window already cleared or replaced the pending entry, so a stale timer
// event matches nothing and the command is dropped.
func (s *Session) handleDeferred(seq uint64) {
	if s.pendingMode == nil || s.pendingMode.seq != seq {
		return
	}
	data := s.pendingMode.data
	s.pendingMode = nil

	s.sendStateSet(data)
}

// clearPendingMode cancels any deferred target-mode write.
func (s *Session) clearPendingMode(reason string) {
	if s.pendingMode == nil {
		return
	}
	s.pendingMode.timer.Stop()
	s.pendingMode = nil
	s.logger.Info("deferred mode write cancelled",
		"serial_number", s.cfg.SerialNumber,
		"reason", reason,
	)
}

// sendStateSet encodes and publishes a STATE-SET for the given deltas.
func (s *Session) sendStateSet(data map[string]string) {
	payload, err := EncodeStateSet(data)
	if err != nil {
		s.logger.Error("state-set encode failed",
			"serial_number", s.cfg.SerialNumber,
			"error", err,
		)
		return
	}

	s.logger.Info("sending command",
		"serial_number", s.cfg.SerialNumber,
		"data", data,
	)
	s.publish(payload)
}

// lastPower reports the cached power state: on, and whether it is known at
// all. Newer models report fpwr, older Link models only fmod.
func (s *Session) lastPower() (on, known bool) {
	if fpwr, ok := s.last["fpwr"]; ok {
		return fpwr != sentinelOff, true
	}
	if fmod, ok := s.last["fmod"]; ok {
		return fmod != sentinelOff, true
	}
	return false, false
}
