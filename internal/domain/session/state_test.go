package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateStartsUninitialized(t *testing.T) {
	state := NewState()
	assert.Equal(t, PhaseUninitialized, state.Phase())
	assert.False(t, state.Ready())
}

func TestTransitionTable(t *testing.T) {
	identity := &Identity{PushName: "Upper", WID: "5511999999999@c.us", Platform: "android"}

	tests := []struct {
		name      string
		apply     func(*State)
		wantPhase Phase
		wantReady bool
	}{
		{
			name:      "scannable code issued",
			apply:     func(s *State) { s.SetAwaitingScan("ABC123") },
			wantPhase: PhaseAwaitingScan,
		},
		{
			name: "authenticated after scan",
			apply: func(s *State) {
				s.SetAwaitingScan("ABC123")
				s.SetAuthenticated()
			},
			wantPhase: PhaseAuthenticated,
		},
		{
			name: "ready after authentication",
			apply: func(s *State) {
				s.SetAwaitingScan("ABC123")
				s.SetAuthenticated()
				s.SetReady(identity)
			},
			wantPhase: PhaseReady,
			wantReady: true,
		},
		{
			name:      "ready without prior scan",
			apply:     func(s *State) { s.SetReady(identity) },
			wantPhase: PhaseReady,
			wantReady: true,
		},
		{
			name: "disconnected from ready",
			apply: func(s *State) {
				s.SetReady(identity)
				s.SetDisconnected()
			},
			wantPhase: PhaseDisconnected,
		},
		{
			name: "reset from any phase",
			apply: func(s *State) {
				s.SetReady(identity)
				s.Reset()
			},
			wantPhase: PhaseUninitialized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewState()
			tt.apply(state)
			assert.Equal(t, tt.wantPhase, state.Phase())
			assert.Equal(t, tt.wantReady, state.Ready())
		})
	}
}

func TestAtMostOneOfCodeAndIdentity(t *testing.T) {
	state := NewState()

	state.SetAwaitingScan("ABC123")
	snap := state.Snapshot()
	assert.Equal(t, "ABC123", snap.PendingCode)
	assert.Nil(t, snap.Identity)

	state.SetReady(&Identity{PushName: "Upper"})
	snap = state.Snapshot()
	assert.Empty(t, snap.PendingCode)
	require.NotNil(t, snap.Identity)
	assert.Equal(t, "Upper", snap.Identity.PushName)

	state.SetDisconnected()
	snap = state.Snapshot()
	assert.Empty(t, snap.PendingCode)
	assert.Nil(t, snap.Identity)
}

func TestSnapshotCopiesIdentity(t *testing.T) {
	state := NewState()
	state.SetReady(&Identity{PushName: "Upper"})

	snap := state.Snapshot()
	snap.Identity.PushName = "mutated"

	assert.Equal(t, "Upper", state.Snapshot().Identity.PushName)
}
