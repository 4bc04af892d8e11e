package store

import (
	"context"
	"errors"
	"time"

	"digitalaxis/internal/models"

	"gorm.io/gorm"
)

type gormCommentStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCommentStore 基于 gorm（生产环境为 PostgreSQL）的评论存储
func NewCommentStore(db *gorm.DB) CommentStore {
	return &gormCommentStore{db: db, now: time.Now}
}

func (s *gormCommentStore) Create(ctx context.Context, c *models.Comment) error {
	c.ID = ""
	c.CreatedAt = s.now().UTC()
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *gormCommentStore) Get(ctx context.Context, id string) (*models.Comment, error) {
	var c models.Comment
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *gormCommentStore) ListByPost(ctx context.Context, postSlug string) ([]models.Comment, error) {
	comments := make([]models.Comment, 0)
	err := s.db.WithContext(ctx).
		Where("post_slug = ?", postSlug).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

func (s *gormCommentStore) ListAll(ctx context.Context) ([]models.Comment, error) {
	comments := make([]models.Comment, 0)
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	return comments, err
}

func (s *gormCommentStore) Approve(ctx context.Context, id string) error {
	// 先确认存在：对已审核记录重复审核也应成功
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", id).
		Update("approved", true).Error
}

func (s *gormCommentStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrCommentNotFound
	}
	return nil
}
