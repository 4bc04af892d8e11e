package store

import (
	"context"
	"errors"
	"time"

	"digitalaxis/internal/models"

	"gorm.io/gorm"
)

type gormSubscriberStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSubscriberStore(db *gorm.DB) SubscriberStore {
	return &gormSubscriberStore{db: db, now: time.Now}
}

func (s *gormSubscriberStore) Create(ctx context.Context, sub *models.Subscriber) error {
	sub.ID = ""
	sub.SubscribedAt = s.now().UTC()
	err := s.db.WithContext(ctx).Create(sub).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.ErrSubscriberExists
	}
	return err
}

func (s *gormSubscriberStore) ExistsEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Subscriber{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

func (s *gormSubscriberStore) List(ctx context.Context) ([]models.Subscriber, error) {
	subs := make([]models.Subscriber, 0)
	err := s.db.WithContext(ctx).Order("subscribed_at DESC").Find(&subs).Error
	return subs, err
}
