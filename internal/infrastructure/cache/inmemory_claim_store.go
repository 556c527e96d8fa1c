package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storepos/backend/internal/domain/shared"
)

// InMemoryClaimStore implements shared.IdempotencyStore with an expiring map.
// Suitable for a single till process.
type InMemoryClaimStore struct {
	mu        sync.Mutex
	claims    map[string]claim
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type claim struct {
	token  string
	expiry time.Time
}

// NewInMemoryClaimStore creates a store and starts its expiry sweeper
func NewInMemoryClaimStore() *InMemoryClaimStore {
	s := &InMemoryClaimStore{
		claims:   make(map[string]claim),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.sweepLoop(time.Minute)
	return s
}

// MarkProcessed claims key until ttl elapses. An expired claim can be retaken.
func (s *InMemoryClaimStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if c, held := s.claims[key]; held && now.Before(c.expiry) {
		return "", false, nil
	}
	token := uuid.NewString()
	s.claims[key] = claim{token: token, expiry: now.Add(ttl)}
	return token, true, nil
}

// IsProcessed reports whether key is currently claimed
func (s *InMemoryClaimStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, held := s.claims[key]
	return held && s.now().Before(c.expiry), nil
}

// Release drops the claim on key if token still owns it
func (s *InMemoryClaimStore) Release(_ context.Context, key, token string) error {
	s.mu.Lock()
	if c, held := s.claims[key]; held && c.token == token {
		delete(s.claims, key)
	}
	s.mu.Unlock()
	return nil
}

// Close stops the sweeper. Safe to call multiple times.
func (s *InMemoryClaimStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of claims held, expired or not
func (s *InMemoryClaimStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.claims)
}

func (s *InMemoryClaimStore) sweepLoop(every time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryClaimStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, c := range s.claims {
		if !now.Before(c.expiry) {
			delete(s.claims, key)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryClaimStore)(nil)
