package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-mining/core"
)

var ErrStateNotFound = errors.New("ratelimit: state not found")

// State is the per-connection submission bookkeeping. Session is the last
// session seen submitting on the connection, kept for idle notifications.
type State struct {
	Connection        core.ConnectionHandle
	Session           *core.Session
	Difficulty        int
	DifficultySetAt   float64
	Submits           int
	StartTime         float64
	LastRecalculation float64
	LastSubmit        float64
	SubmissionRate    float64
	ChangesUp         int
	ChangesDown       int
}

type StateStore interface {
	Get(ctx context.Context, conn core.ConnectionHandle) (State, error)
	Upsert(ctx context.Context, state State) error
	Delete(ctx context.Context, conn core.ConnectionHandle) error
	// List returns every tracked connection's state.
	List(ctx context.Context) ([]State, error)
}

type MemoryStateStore struct {
	mu    sync.RWMutex
	items map[core.ConnectionHandle]State
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{items: map[core.ConnectionHandle]State{}}
}

func (s *MemoryStateStore) Get(_ context.Context, conn core.ConnectionHandle) (State, error) {
	if s == nil {
		return State{}, fmt.Errorf("ratelimit: state store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.items[conn]
	if !ok {
		return State{}, ErrStateNotFound
	}
	return state, nil
}

func (s *MemoryStateStore) Upsert(_ context.Context, state State) error {
	if s == nil {
		return fmt.Errorf("ratelimit: state store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[state.Connection] = state
	return nil
}

func (s *MemoryStateStore) Delete(_ context.Context, conn core.ConnectionHandle) error {
	if s == nil {
		return fmt.Errorf("ratelimit: state store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, conn)
	return nil
}

func (s *MemoryStateStore) List(_ context.Context) ([]State, error) {
	if s == nil {
		return nil, fmt.Errorf("ratelimit: state store is nil")
	}
	s.mu.RLock()
	out := make([]State, 0, len(s.items))
	for _, state := range s.items {
		out = append(out, state)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Connection < out[j].Connection })
	return out, nil
}

func (s *MemoryStateStore) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

var _ StateStore = (*MemoryStateStore)(nil)
