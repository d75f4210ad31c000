package memory

import (
	"context"
	"slices"
	"time"

	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/patrickmn/go-cache"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	sessions *cache.Cache
	ttl      time.Duration
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTTL expires sessions that have not been saved for ttl.
// Zero or negative keeps them until deleted.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl > 0 {
		s.sessions = cache.New(s.ttl, s.ttl)
	} else {
		s.sessions = cache.New(cache.NoExpiration, 0)
	}
	return s
}

// Save persists a copy of the state and refreshes its expiry.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.State) error {
	s.sessions.SetDefault(sessionID, state.Snapshot())
	return nil
}

// Load returns a copy so callers can't mutate the stored path.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	v, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return v.(*domain.State).Snapshot(), nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.sessions.Delete(sessionID)
	return nil
}

// List returns the live sessions, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	items := s.sessions.Items()
	sessions := make([]string, 0, len(items))
	for id := range items {
		sessions = append(sessions, id)
	}
	slices.Sort(sessions)
	return sessions, nil
}
