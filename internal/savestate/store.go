// Package savestate persists the opaque state blobs AIs produce on SAVE and
// publishes a journal of AI lifecycle records.
//
// Redis is the production backend. Keys and channels are namespaced by match id:
//
//	skirmish:{match}:aistate:{team}   string, the saved bytes
//	skirmish:{match}:aistates         set of teams with saved state
//	skirmish:{match}:ai_events        Pub/Sub channel of JSON Records
package savestate

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned by Get when no state is stored for a team.
var ErrNotFound = errors.New("no saved state")

// IsNotFound reports whether err means no state was stored.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Store keeps one state blob per (match, team).
type Store interface {
	Put(ctx context.Context, matchID string, team int, data []byte) error
	Get(ctx context.Context, matchID string, team int) ([]byte, error)
	Delete(ctx context.Context, matchID string, team int) error
	Teams(ctx context.Context, matchID string) ([]int, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]map[int][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]map[int][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, matchID string, team int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.states[matchID] == nil {
		s.states[matchID] = make(map[int][]byte)
	}
	s.states[matchID][team] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, matchID string, team int) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.states[matchID][team]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Delete(_ context.Context, matchID string, team int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states[matchID], team)
	return nil
}

func (s *MemoryStore) Teams(_ context.Context, matchID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	teams := make([]int, 0, len(s.states[matchID]))
	for t := range s.states[matchID] {
		teams = append(teams, t)
	}
	sort.Ints(teams)
	return teams, nil
}
