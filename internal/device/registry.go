package device

import (
	"fmt"
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Session is the registry's view of a live device session. The concrete type
// lives in the bridge package; the registry only needs identity and teardown.
type Session interface {
	SerialNumber() string
	Close() error
}

// Registry tracks the live session for each appliance, keyed by serial
// number. The orchestrator adds sessions as devices are configured and the
// registry owns their teardown at shutdown.
//
// All public methods are thread-safe.
type Registry struct {
	sessions map[string]Session
	mu       sync.RWMutex
	logger   Logger
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]Session),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Add registers a session under its serial number.
//
// Returns:
//   - error: ErrSessionExists if a session is already registered for the serial
func (r *Registry) Add(s Session) error {
	serial := s.SerialNumber()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[serial]; ok {
		return fmt.Errorf("%w: %s", ErrSessionExists, serial)
	}

	r.sessions[serial] = s
	r.logger.Debug("session registered", "serial_number", serial)
	return nil
}

// Get retrieves the session for a serial number.
//
// Returns:
//   - Session: The live session
//   - error: ErrSessionNotFound if no session is registered for the serial
func (r *Registry) Get(serialNumber string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[serialNumber]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, serialNumber)
	}
	return s, nil
}

// Remove deregisters and closes the session for a serial number.
//
// Returns:
//   - error: ErrSessionNotFound if no session is registered, or the session's
//     close error
func (r *Registry) Remove(serialNumber string) error {
	r.mu.Lock()
	s, ok := r.sessions[serialNumber]
	if ok {
		delete(r.sessions, serialNumber)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, serialNumber)
	}

	r.logger.Debug("session removed", "serial_number", serialNumber)
	return s.Close()
}

// Serials returns the registered serial numbers in sorted order.
func (r *Registry) Serials() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	serials := make([]string, 0, len(r.sessions))
	for serial := range r.sessions {
		serials = append(serials, serial)
	}
	sort.Strings(serials)
	return serials
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll closes every registered session and empties the registry.
// Close errors are logged, not returned; shutdown proceeds regardless.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]Session)
	r.mu.Unlock()

	for serial, s := range sessions {
		if err := s.Close(); err != nil {
			r.logger.Warn("session close failed",
				"serial_number", serial,
				"error", err,
			)
		}
	}
	r.logger.Info("all sessions closed", "count", len(sessions))
}
