package state

import "sync"

// Store owns a GameState and serializes access to it. Trigger ticks read
// snapshots and dispatch actions; gameplay events use Update.
type Store struct {
	mu sync.RWMutex
	gs *GameState
}

// NewStore wraps gs. A nil gs starts from NewGameState.
func NewStore(gs *GameState) *Store {
	if gs == nil {
		gs = NewGameState()
	}
	return &Store{gs: gs}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gs.Snapshot()
}

// Dispatch applies one action.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gs.Apply(a)
}

// Update runs fn with exclusive access to the live state. fn must not call
// back into the store.
func (s *Store) Update(fn func(gs *GameState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.gs)
}
