package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"digitalaxis/internal/models"
	"digitalaxis/internal/store"

	"go.uber.org/zap"
)

var (
	testCtx = context.Background()
	admin   = Moderator{Name: "DigitalAxis"}
)

func strPtr(s string) *string { return &s }

// seedComment 构造固定 ID 的记录，created 为分钟偏移
func seedComment(id, parent, post string, approved bool, created int) models.Comment {
	c := models.Comment{
		ID:        id,
		PostSlug:  post,
		Author:    "author-" + id,
		Email:     id + "@example.com",
		Content:   "content " + id,
		Approved:  approved,
		CreatedAt: time.Date(2025, 1, 1, 0, created, 0, 0, time.UTC),
	}
	if parent != "" {
		c.ParentID = strPtr(parent)
	}
	return c
}

// 1 <- 2 <- 4, 1 <- 3，全部在 pasta 下
func seededStore() *store.MemoryCommentStore {
	s := store.NewMemoryCommentStore()
	s.Seed(
		seedComment("1", "", "pasta", true, 1),
		seedComment("2", "1", "pasta", true, 2),
		seedComment("3", "1", "pasta", true, 3),
		seedComment("4", "2", "pasta", true, 4),
	)
	return s
}

func newModeration(s store.CommentStore) *ModerationService {
	return NewModerationService(s, zap.NewNop(), nil)
}

// flakyStore 在删除指定 ID 时返回错误
type flakyStore struct {
	store.CommentStore
	failDelete string
	failList   bool
}

var errStoreDown = errors.New("store unavailable")

func (f *flakyStore) Delete(ctx context.Context, id string) error {
	if id == f.failDelete {
		return errStoreDown
	}
	return f.CommentStore.Delete(ctx, id)
}

func (f *flakyStore) ListAll(ctx context.Context) ([]models.Comment, error) {
	if f.failList {
		return nil, errStoreDown
	}
	return f.CommentStore.ListAll(ctx)
}

func (f *flakyStore) ListByPost(ctx context.Context, slug string) ([]models.Comment, error) {
	if f.failList {
		return nil, errStoreDown
	}
	return f.CommentStore.ListByPost(ctx, slug)
}

// recordingMailer 记录通知调用
type recordingMailer struct {
	mu       sync.Mutex
	comments []models.Comment
	welcomes []string
}

func (m *recordingMailer) NotifyNewComment(c models.Comment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments = append(m.comments, c)
}

func (m *recordingMailer) SendSubscriberWelcome(email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomes = append(m.welcomes, email)
}

// recordingScheduler 记录提交给 IndexNow 的 URL
type recordingScheduler struct {
	urls []string
}

func (r *recordingScheduler) Schedule(url string) {
	r.urls = append(r.urls, url)
}
