// Package conversation keeps chat turns per conversation id and assembles the
// context window sent to the AI gateway.
package conversation

import (
	"context"
	"slices"
	"sync"
	"time"

	"learnwise/internal/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store holds conversation logs. Implementations must return copies from Get.
type Store interface {
	Get(ctx context.Context, id string) ([]models.Message, bool, error)
	Append(ctx context.Context, id string, msgs ...models.Message) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore is a bounded in-process store. The least recently written
// conversation is dropped once limit is reached, and conversations idle for
// longer than ttl expire.
type MemoryStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, []models.Message]
}

func NewMemoryStore(limit int, ttl time.Duration) *MemoryStore {
	if limit <= 0 {
		limit = 1000
	}
	return &MemoryStore{cache: expirable.NewLRU[string, []models.Message](limit, nil, ttl)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) ([]models.Message, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, ok := s.cache.Get(id)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(msgs), true, nil
}

func (s *MemoryStore) Append(ctx context.Context, id string, msgs ...models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, _ := s.cache.Get(id)
	next := make([]models.Message, 0, len(cur)+len(msgs))
	next = append(next, cur...)
	next = append(next, msgs...)
	s.cache.Add(id, next)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(id)
	return nil
}

func (s *MemoryStore) Len() int {
	return s.cache.Len()
}
