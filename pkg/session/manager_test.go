package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/ports"
	"github.com/aretw0/skphelp/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.State
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, state *domain.State) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.State)
	}
	s.data[sessionID] = state.Snapshot()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.data[sessionID]; ok {
		return state.Snapshot(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_UpdateSerialisesWrites(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	_, err := manager.LoadOrStart(ctx, id, "root")
	require.NoError(t, err)

	// Without the lock, concurrent read-modify-write cycles would lose appends.
	var wg sync.WaitGroup
	concurrentWrites := 10
	for i := 0; i < concurrentWrites; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Update(ctx, id, func(s *domain.State) error {
				s.Path = append(s.Path, "step")
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, state.Path, concurrentWrites+1)
}

func TestManager_UpdateAbortsOnError(t *testing.T) {
	store := &SlowStore{}
	clock := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
	manager := session.NewManager(store, session.WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	_, err := manager.LoadOrStart(ctx, "s1", "root")
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = manager.Update(ctx, "s1", func(s *domain.State) error {
		s.Path = append(s.Path, "tech_issue")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	state, err := manager.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.Path{"root"}, state.Path)

	clock = clock.Add(time.Minute)
	updated, err := manager.Update(ctx, "s1", func(s *domain.State) error {
		s.Path = append(s.Path, "tech_issue")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, clock, updated.UpdatedAt)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = manager.Update(ctx, "missing", func(*domain.State) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_OnChangeFollowsCommitOrder(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "watched"

	_, err := manager.LoadOrStart(ctx, id, "root")
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		changes [][2]int
	)
	stop := manager.OnChange(func(_ context.Context, before, after *domain.State) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, [2]int{len(before.Path), len(after.Path)})
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := manager.Update(ctx, id, func(s *domain.State) error {
				if i%3 == 2 && len(s.Path) > 1 {
					s.Path = s.Path[:len(s.Path)-1]
					return nil
				}
				s.Path = append(s.Path, "step")
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	_, err = manager.Update(ctx, id, func(*domain.State) error { return errors.New("rejected") })
	require.Error(t, err)

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)

	mu.Lock()
	require.Len(t, changes, 8)
	depth := 1
	for _, c := range changes {
		assert.Equal(t, depth, c[0], "each change starts where the previous one ended")
		depth = c[1]
	}
	assert.Equal(t, len(state.Path), depth)
	mu.Unlock()

	stop()
	_, err = manager.Update(ctx, id, func(s *domain.State) error {
		s.Path = append(s.Path, "after-stop")
		return nil
	})
	require.NoError(t, err)
	mu.Lock()
	assert.Len(t, changes, 8)
	mu.Unlock()
}

func TestManager_LoadOrStart(t *testing.T) {
	// Verify atomic creation
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := manager.LoadOrStart(ctx, id, "root")
			assert.NoError(t, err)
			assert.NotNil(t, state)
		}()
	}
	wg.Wait()

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "root", state.Path.Current())
	assert.Equal(t, id, state.SessionID)
}

type recordingLocker struct {
	mu       sync.Mutex
	ttls     []time.Duration
	unlocked int
	fail     error
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return nil, l.fail
	}
	l.ttls = append(l.ttls, ttl)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked++
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(5*time.Second))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "s1", domain.NewState("s1", "root")))
	require.NoError(t, manager.Delete(ctx, "s1"))

	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, locker.ttls)
	assert.Equal(t, 2, locker.unlocked)

	locker.fail = errors.New("redis down")
	err := manager.Save(ctx, "s1", domain.NewState("s1", "root"))
	assert.ErrorContains(t, err, "distributed lock")
}
