package services

import (
	"context"
	"fmt"
	"strings"

	"digitalaxis/internal/metrics"
	"digitalaxis/internal/models"
	"digitalaxis/internal/store"
	"digitalaxis/internal/thread"

	"go.uber.org/zap"
)

// CommentNotifier 新评论通知（邮件）
type CommentNotifier interface {
	NotifyNewComment(c models.Comment)
}

// CommentInput 访客发表评论或回复
type CommentInput struct {
	PostSlug      string `json:"postSlug" form:"postSlug"`
	ParentID      string `json:"parentId" form:"parentId"`
	Author        string `json:"author" form:"author"`
	Email         string `json:"email" form:"email"`
	Content       string `json:"content" form:"content"`
	MentionedUser string `json:"mentionedUser" form:"mentionedUser"`
}

type CommentService struct {
	store    store.CommentStore
	notifier CommentNotifier
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func NewCommentService(s store.CommentStore, n CommentNotifier, log *zap.Logger, m *metrics.Metrics) *CommentService {
	return &CommentService{store: s, notifier: n, log: log, metrics: m}
}

func (in *CommentInput) normalize() {
	in.PostSlug = strings.TrimSpace(in.PostSlug)
	in.ParentID = strings.TrimSpace(in.ParentID)
	in.Author = strings.TrimSpace(in.Author)
	in.Email = NormalizeEmail(in.Email)
	in.Content = strings.TrimSpace(in.Content)
	in.MentionedUser = strings.TrimSpace(in.MentionedUser)
}

func (in CommentInput) validate() error {
	if in.PostSlug == "" {
		return invalid("postSlug", "Missing post")
	}
	if in.Author == "" || in.Email == "" || in.Content == "" {
		return invalid("", "Please fill in all fields")
	}
	if !ValidEmail(in.Email) || tooLong(in.Email, MaxEmailLength) {
		return invalid("email", "Please enter a valid email address")
	}
	if tooLong(in.Author, MaxAuthorLength) {
		return invalid("author", "Name is too long (max 100 characters)")
	}
	if tooLong(in.Content, MaxContentLength) {
		return invalid("content", "Comment is too long (max 2000 characters)")
	}
	return nil
}

// Submit 访客评论直接公开（approved=true），并通知站长
func (s *CommentService) Submit(ctx context.Context, in CommentInput) (*models.Comment, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	c := &models.Comment{
		PostSlug:      in.PostSlug,
		Author:        in.Author,
		Email:         in.Email,
		Content:       in.Content,
		Approved:      true,
		MentionedUser: in.MentionedUser,
	}
	if in.ParentID != "" {
		if err := checkParent(ctx, s.store, in.PostSlug, in.ParentID); err != nil {
			return nil, err
		}
		c.ParentID = &in.ParentID
	}

	if err := s.store.Create(ctx, c); err != nil {
		s.log.Error("create comment failed", zap.String("post_slug", in.PostSlug), zap.Error(err))
		return nil, fmt.Errorf("create comment: %w", err)
	}
	s.metrics.IncCommentSubmitted()
	if s.notifier != nil {
		s.notifier.NotifyNewComment(*c)
	}
	return c, nil
}

// Thread 某篇文章公开可见的评论树，隐去邮箱
func (s *CommentService) Thread(ctx context.Context, postSlug string) ([]*thread.Node, error) {
	comments, err := s.store.ListByPost(ctx, postSlug)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	for i := range comments {
		comments[i] = comments[i].Redacted()
	}
	return thread.Reconcile(comments, thread.Filter{Status: thread.StatusApproved, PostSlug: postSlug}), nil
}

// Count 已公开的评论数，用于文章列表
func (s *CommentService) Count(ctx context.Context, postSlug string) (int, error) {
	comments, err := s.store.ListByPost(ctx, postSlug)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range comments {
		if c.Approved {
			n++
		}
	}
	return n, nil
}
