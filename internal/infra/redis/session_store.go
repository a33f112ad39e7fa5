package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"document-quiz/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Live states (with their indexes and LLM handles) stay in a local map;
// Redis holds a JSON snapshot of each one, refreshed on every save and
// expiring after ttl, so other tools can inspect progress.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.State
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
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

// Save writes the snapshot; failures are logged, the local state stays authoritative.
func (s *SessionStore) Save(ctx context.Context, st *app.State) {
	data, err := json.Marshal(st.Snapshot())
	if err != nil {
		log.Warn().Err(err).Str("session", st.ID()).Msg("Failed to encode session snapshot")
		return
	}
	if err := s.client.Set(ctx, s.key(st.ID()), data, s.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("session", st.ID()).Msg("Failed to mirror session to redis")
	}
}

func (s *SessionStore) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		log.Warn().Err(err).Str("session", id).Msg("Failed to delete session snapshot")
	}
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

// Load reads a mirrored snapshot.
func (s *SessionStore) Load(ctx context.Context, id string) (app.Snapshot, error) {
	var snap app.Snapshot
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		return snap, err
	}
	err = json.Unmarshal(data, &snap)
	return snap, err
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}
