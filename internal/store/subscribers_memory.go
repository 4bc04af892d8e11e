package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"digitalaxis/internal/models"

	"github.com/google/uuid"
)

type MemorySubscriberStore struct {
	mu   sync.RWMutex
	subs []models.Subscriber
	now  func() time.Time
}

func NewMemorySubscriberStore() *MemorySubscriberStore {
	return &MemorySubscriberStore{now: time.Now}
}

func (s *MemorySubscriberStore) Create(_ context.Context, sub *models.Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.subs {
		if existing.Email == sub.Email {
			return models.ErrSubscriberExists
		}
	}
	sub.ID = uuid.NewString()
	sub.SubscribedAt = s.now().UTC()
	s.subs = append(s.subs, *sub)
	return nil
}

func (s *MemorySubscriberStore) ExistsEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, existing := range s.subs {
		if existing.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemorySubscriberStore) List(_ context.Context) ([]models.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Subscriber, len(s.subs))
	copy(out, s.subs)
	// 稳定排序：时间相同时保持后写入的在前
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubscribedAt.After(out[j].SubscribedAt)
	})
	return out, nil
}
