// Package session holds the lifecycle state of the single WhatsApp session
// the bridge wraps.
package session

import "sync"

// Phase is the discrete lifecycle state of the wrapped session.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseAwaitingScan  Phase = "awaiting_scan"
	PhaseAuthenticated Phase = "authenticated"
	PhaseReady         Phase = "ready"
	PhaseDisconnected  Phase = "disconnected"
)

// Identity is the advisory profile descriptor exposed by the underlying
// client once a session is established.
type Identity struct {
	PushName string `json:"pushname"`
	WID      string `json:"wid"`
	Platform string `json:"platform"`
}

// Snapshot is a point-in-time copy of the session state, safe to hand to
// subscribers and handlers.
type Snapshot struct {
	Phase       Phase     `json:"state"`
	Ready       bool      `json:"ready"`
	PendingCode string    `json:"-"`
	Identity    *Identity `json:"info"`
}

// State is the process-wide session state. It is created once at startup in
// PhaseUninitialized and only ever reset, never destroyed. Mutation happens
// from the tracker's single event pump and from explicit control operations,
// so the mutex only guards readers against those writers.
type State struct {
	mu          sync.RWMutex
	phase       Phase
	pendingCode string
	identity    *Identity
}

// NewState returns a State in PhaseUninitialized.
func NewState() *State {
	return &State{phase: PhaseUninitialized}
}

// Phase returns the current lifecycle phase.
func (s *State) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Ready reports whether the session is in PhaseReady.
func (s *State) Ready() bool {
	return s.Phase() == PhaseReady
}

// Snapshot returns a consistent copy of the full state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var id *Identity
	if s.identity != nil {
		copied := *s.identity
		id = &copied
	}
	return Snapshot{
		Phase:       s.phase,
		Ready:       s.phase == PhaseReady,
		PendingCode: s.pendingCode,
		Identity:    id,
	}
}

// SetAwaitingScan records a freshly issued scannable code. The identity is
// cleared: at most one of pendingCode/identity is meaningful at a time.
func (s *State) SetAwaitingScan(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseAwaitingScan
	s.pendingCode = code
	s.identity = nil
}

// SetAuthenticated marks the scan as accepted. The pending code is consumed.
func (s *State) SetAuthenticated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseAuthenticated
	s.pendingCode = ""
}

// SetReady marks the session usable and records the identity reported by the
// client, which may be nil when the identity snapshot failed.
func (s *State) SetReady(identity *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseReady
	s.pendingCode = ""
	s.identity = identity
}

// SetDisconnected drops the session back to the disconnected phase and clears
// both the pending code and the identity.
func (s *State) SetDisconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseDisconnected
	s.pendingCode = ""
	s.identity = nil
}

// Reset forces the state back to its pre-session form. Used by the restart
// control operation before the underlying client is re-initialized.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseUninitialized
	s.pendingCode = ""
	s.identity = nil
}
