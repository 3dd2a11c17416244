package platform

import (
	"sync"
	"time"

	"github.com/purebridge/purebridge-core/internal/bridges/dyson"
)

// Snapshot is the latest known view of one appliance. Nil pointers mean no
// frame of that kind has been received on the current connection.
type Snapshot struct {
	Environment *dyson.Environment    `json:"environment,omitempty"`
	State       *dyson.State          `json:"state,omitempty"`
	Connection  dyson.ConnectionState `json:"-"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// snapshotStore holds the latest snapshot per serial number. Writes come
// from session event loops, reads from the API; a single RWMutex covers the
// map and the snapshots inside it.
type snapshotStore struct {
	mu    sync.RWMutex
	snaps map[string]*Snapshot
}

func newSnapshotStore() *snapshotStore {
	return &snapshotStore{snaps: make(map[string]*Snapshot)}
}

func (s *snapshotStore) upsert(serialNumber string) *Snapshot {
	snap, ok := s.snaps[serialNumber]
	if !ok {
		snap = &Snapshot{Connection: dyson.StateDisconnected}
		s.snaps[serialNumber] = snap
	}
	return snap
}

func (s *snapshotStore) setEnvironment(serialNumber string, env dyson.Environment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.upsert(serialNumber)
	snap.Environment = &env
	snap.UpdatedAt = time.Now()
}

// setState merges an incoming state into the stored one. State frames carry
// only the fields that changed, so later frames must not wipe out fields an
// earlier frame populated.
func (s *snapshotStore) setState(serialNumber string, st dyson.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.upsert(serialNumber)
	if snap.State == nil {
		snap.State = &dyson.State{}
	}
	mergeState(snap.State, st)
	snap.UpdatedAt = time.Now()
}

func (s *snapshotStore) setConnection(serialNumber string, state dyson.ConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.upsert(serialNumber)
	snap.Connection = state
	snap.UpdatedAt = time.Now()
}

// get returns a copy of the snapshot so callers never hold references into
// the store.
func (s *snapshotStore) get(serialNumber string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[serialNumber]
	if !ok {
		return Snapshot{}, false
	}
	return *snap, true
}

func (s *snapshotStore) remove(serialNumber string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, serialNumber)
}

func mergeState(dst *dyson.State, src dyson.State) {
	if src.Power != nil {
		dst.Power = src.Power
	}
	if src.Mode != nil {
		dst.Mode = src.Mode
	}
	if src.Purifying != nil {
		dst.Purifying = src.Purifying
	}
	if src.FanSpeedPercent != nil {
		dst.FanSpeedPercent = src.FanSpeedPercent
	}
	if src.Oscillation != nil {
		dst.Oscillation = src.Oscillation
	}
	if src.NightMode != nil {
		dst.NightMode = src.NightMode
	}
	if src.JetFocus != nil {
		dst.JetFocus = src.JetFocus
	}
	if src.ContinuousMonitoring != nil {
		dst.ContinuousMonitoring = src.ContinuousMonitoring
	}
	if src.HeatingOn != nil {
		dst.HeatingOn = src.HeatingOn
	}
	if src.TargetTemperature != nil {
		dst.TargetTemperature = src.TargetTemperature
	}
	if src.HumidifierOn != nil {
		dst.HumidifierOn = src.HumidifierOn
	}
	if src.TargetHumidity != nil {
		dst.TargetHumidity = src.TargetHumidity
	}
	if src.Filter != nil {
		dst.Filter = src.Filter
	}
}
