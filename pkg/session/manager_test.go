package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/plotline/pkg/adapters/redis"
	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.ConversationSnapshot
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, snap *domain.ConversationSnapshot) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.ConversationSnapshot)
	}
	s.data[sessionID] = snap.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.ConversationSnapshot, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap, ok := s.data[sessionID]; ok {
		return snap.Clone(), nil
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

func TestManager_WithLockSerializesReadModifyWrite(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	_, err := manager.LoadOrStart(ctx, id)
	require.NoError(t, err)

	var wg sync.WaitGroup
	const writers = 10

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, id, func(ctx context.Context) error {
				snap, err := manager.Store().Load(ctx, id)
				if err != nil {
					return err
				}
				snap.Events = append(snap.Events, "turn")
				return manager.Store().Save(ctx, id, snap)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, snap.Events, writers, "no update may be lost")
}

func TestManager_LoadOrStart(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := manager.LoadOrStart(ctx, id)
			assert.NoError(t, err)
			assert.NotNil(t, snap)
		}()
	}
	wg.Wait()

	snap, err := manager.Load(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, id, snap.SessionID)
	assert.Equal(t, domain.ActionListen, snap.LatestAction)
}

func TestManager_Delete(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "s1", domain.NewConversationSnapshot("s1")))
	require.NoError(t, manager.Delete(ctx, "s1"))

	_, err := manager.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_DistributedLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := redis.NewFromClient(client)
	manager := session.NewManager(store,
		session.WithLocker(redis.NewLocker(client, "test:")),
		session.WithLockTTL(5*time.Second),
	)
	ctx := context.Background()

	err = manager.WithLock(ctx, "s1", func(ctx context.Context) error {
		assert.True(t, mr.Exists("test:lock:s1"), "distributed lock must be held inside WithLock")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:lock:s1"))
}
