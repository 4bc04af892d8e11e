package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"digitalaxis/internal/models"

	"github.com/google/uuid"
)

// MemoryCommentStore 内存实现，用于本地开发和测试
type MemoryCommentStore struct {
	mu       sync.RWMutex
	comments map[string]models.Comment
	seq      map[string]int // 插入顺序，创建时间相同时作为次序
	next     int
	now      func() time.Time
}

func NewMemoryCommentStore() *MemoryCommentStore {
	return &MemoryCommentStore{
		comments: make(map[string]models.Comment),
		seq:      make(map[string]int),
		now:      time.Now,
	}
}

func (s *MemoryCommentStore) Create(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()
	c.CreatedAt = s.now().UTC()
	s.put(*c)
	return nil
}

// Seed 原样写入记录（保留 ID、时间和审核状态），测试用
func (s *MemoryCommentStore) Seed(comments ...models.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range comments {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		s.put(c)
	}
}

func (s *MemoryCommentStore) put(c models.Comment) {
	s.comments[c.ID] = c
	s.next++
	s.seq[c.ID] = s.next
}

func (s *MemoryCommentStore) Get(_ context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return nil, models.ErrCommentNotFound
	}
	return &c, nil
}

func (s *MemoryCommentStore) ListByPost(_ context.Context, postSlug string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Comment, 0)
	for _, c := range s.comments {
		if c.PostSlug == postSlug {
			out = append(out, c)
		}
	}
	s.sortAsc(out)
	return out, nil
}

func (s *MemoryCommentStore) ListAll(_ context.Context) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Comment, 0, len(s.comments))
	for _, c := range s.comments {
		out = append(out, c)
	}
	s.sortAsc(out)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *MemoryCommentStore) sortAsc(cs []models.Comment) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.Before(cs[j].CreatedAt)
		}
		return s.seq[cs[i].ID] < s.seq[cs[j].ID]
	})
}

func (s *MemoryCommentStore) Approve(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return models.ErrCommentNotFound
	}
	c.Approved = true
	s.comments[id] = c
	return nil
}

func (s *MemoryCommentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return models.ErrCommentNotFound
	}
	delete(s.comments, id)
	delete(s.seq, id)
	return nil
}
