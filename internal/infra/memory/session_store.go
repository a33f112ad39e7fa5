package memory

import (
	"context"
	"sync"

	"document-quiz/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.State
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.State),
	}
}

func (s *SessionStore) GetOrCreate(id string) *app.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[id]; ok {
		return st
	}
	st := app.NewState(id)
	s.sessions[id] = st
	return st
}

func (s *SessionStore) Get(id string) (*app.State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[id]
	return st, ok
}

// Save is a no-op, states live in the map already.
func (s *SessionStore) Save(context.Context, *app.State) {}

func (s *SessionStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *SessionStore) List() []*app.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.State, 0, len(s.sessions))
	for _, st := range s.sessions {
		out = append(out, st)
	}
	return out
}
