package state

import "sync"

// Action transforms a state. Apply receives a copy it may mutate freely; a
// non-nil error discards the copy and leaves the store untouched.
type Action interface {
	Apply(s State) (State, error)
}

// Store serialises all state transitions.
type Store struct {
	mu    sync.Mutex
	state State

	subsMu sync.Mutex
	subs   map[int]func(State)
	nextID int
}

func NewStore() *Store {
	return &Store{
		state: newState(),
		subs:  map[int]func(State){},
	}
}

// Dispatch applies a to the latest state and notifies subscribers. It returns
// a snapshot of the resulting state; on error the snapshot is the unchanged
// current state.
func (s *Store) Dispatch(a Action) (State, error) {
	s.mu.Lock()
	next, err := a.Apply(s.state.clone())
	if err != nil {
		snap := s.state.clone()
		s.mu.Unlock()
		return snap, err
	}
	s.state = next
	snap := next.clone()
	s.mu.Unlock()

	for _, fn := range s.subscribers() {
		fn(snap.clone())
	}
	return snap, nil
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to run after every successful dispatch. Callbacks
// run on the dispatching goroutine, outside the store lock.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) subscribers() []func(State) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	out := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}
