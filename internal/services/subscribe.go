package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"digitalaxis/internal/metrics"
	"digitalaxis/internal/models"
	"digitalaxis/internal/store"

	"go.uber.org/zap"
)

// WelcomeSender 订阅成功后的欢迎邮件
type WelcomeSender interface {
	SendSubscriberWelcome(email string)
}

type SubscribeService struct {
	store   store.SubscriberStore
	mail    WelcomeSender
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewSubscribeService(s store.SubscriberStore, mail WelcomeSender, log *zap.Logger, m *metrics.Metrics) *SubscribeService {
	return &SubscribeService{store: s, mail: mail, log: log, metrics: m}
}

// Subscribe 校验邮箱并登记订阅。重复订阅返回 ErrAlreadySubscribed
func (s *SubscribeService) Subscribe(ctx context.Context, email, postSlug string) (*models.Subscriber, error) {
	if email == "" {
		return nil, invalid("email", "Email is required")
	}
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return nil, invalid("email", "Invalid email address")
	}
	if tooLong(email, MaxEmailLength) {
		return nil, invalid("email", "Email address is too long")
	}

	exists, err := s.store.ExistsEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check subscriber: %w", err)
	}
	if exists {
		return nil, ErrAlreadySubscribed
	}

	sub := &models.Subscriber{
		Email:    email,
		Source:   "website",
		PostSlug: postSlug,
	}
	if err := s.store.Create(ctx, sub); err != nil {
		// 并发订阅由唯一索引兜底
		if errors.Is(err, models.ErrSubscriberExists) {
			return nil, ErrAlreadySubscribed
		}
		s.log.Error("create subscriber failed", zap.Error(err))
		return nil, fmt.Errorf("create subscriber: %w", err)
	}

	s.metrics.IncSubscriber()
	if s.mail != nil {
		s.mail.SendSubscriberWelcome(email)
	}
	return sub, nil
}

func (s *SubscribeService) List(ctx context.Context) ([]models.Subscriber, error) {
	return s.store.List(ctx)
}

// ExportCSV 导出订阅者列表
func (s *SubscribeService) ExportCSV(ctx context.Context, w io.Writer) error {
	subs, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Email", "Subscribed At", "Blog Post"}); err != nil {
		return err
	}
	for _, sub := range subs {
		post := sub.PostSlug
		if post == "" {
			post = "N/A"
		}
		if err := cw.Write([]string{sub.Email, sub.SubscribedAt.UTC().Format(time.RFC3339), post}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
