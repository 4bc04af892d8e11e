// Package store 评论与订阅者的持久化。评论存储只提供扁平记录，
// 线程结构由 thread 包在内存中计算
package store

import (
	"context"

	"digitalaxis/internal/models"
)

// CommentStore 评论记录存储
type CommentStore interface {
	// Create 分配 ID 与服务器时间后写入
	Create(ctx context.Context, c *models.Comment) error
	Get(ctx context.Context, id string) (*models.Comment, error)
	// ListByPost 按创建时间升序返回某篇文章的全部评论（公开展示）
	ListByPost(ctx context.Context, postSlug string) ([]models.Comment, error)
	// ListAll 按创建时间降序返回全部评论（后台审核）
	ListAll(ctx context.Context) ([]models.Comment, error)
	Approve(ctx context.Context, id string) error
	// Delete 删除单条记录，不存在时返回 models.ErrCommentNotFound
	Delete(ctx context.Context, id string) error
}

// SubscriberStore 邮件订阅者存储
type SubscriberStore interface {
	// Create 邮箱已存在时返回 models.ErrSubscriberExists
	Create(ctx context.Context, s *models.Subscriber) error
	ExistsEmail(ctx context.Context, email string) (bool, error)
	// List 按订阅时间降序
	List(ctx context.Context) ([]models.Subscriber, error)
}
