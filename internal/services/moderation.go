package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"digitalaxis/internal/metrics"
	"digitalaxis/internal/models"
	"digitalaxis/internal/store"
	"digitalaxis/internal/thread"

	"go.uber.org/zap"
)

// Moderator 审核权限凭证，由 HTTP 层根据管理员会话生成后显式传入。
// 零值表示没有权限
type Moderator struct {
	Name string
}

// Valid reports whether m carries moderation rights.
func (m Moderator) Valid() bool {
	return strings.TrimSpace(m.Name) != ""
}

// DeletePreview 删除前的确认信息
type DeletePreview struct {
	ID                   string `json:"id"`
	IsRoot               bool   `json:"isRoot"`
	ReplyCount           int    `json:"replyCount"`
	RequiresConfirmation bool   `json:"requiresConfirmation"`
	Message              string `json:"message"`
}

// ConfirmationError 带有预览信息的 ErrConfirmationRequired
type ConfirmationError struct {
	Preview DeletePreview
}

func (e *ConfirmationError) Error() string { return e.Preview.Message }

func (e *ConfirmationError) Is(target error) bool { return target == ErrConfirmationRequired }

// DeleteResult 级联删除结果
type DeleteResult struct {
	ID      string   `json:"id"`
	Deleted []string `json:"deleted"`
	Missing []string `json:"missing,omitempty"`
	Message string   `json:"message"`
}

// ReplyInput 管理端回复接口的请求体
type ReplyInput struct {
	PostSlug      string `json:"postSlug" form:"postSlug"`
	ParentID      string `json:"parentId" form:"parentId"`
	Author        string `json:"author" form:"author"`
	Content       string `json:"content" form:"content"`
	MentionedUser string `json:"mentionedUser" form:"mentionedUser"`
}

// Dashboard 审核面板数据
type Dashboard struct {
	Filter        thread.Filter  `json:"filter"`
	Threads       []*thread.Node `json:"threads"`
	Total         int            `json:"total"`
	PendingCount  int            `json:"pendingCount"`
	ApprovedCount int            `json:"approvedCount"`
	Posts         []string       `json:"posts"`
}

type ModerationService struct {
	store   store.CommentStore
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewModerationService(s store.CommentStore, log *zap.Logger, m *metrics.Metrics) *ModerationService {
	return &ModerationService{store: s, log: log, metrics: m}
}

// Dashboard 读取全部评论（按时间倒序）并按过滤条件重建线程
func (s *ModerationService) Dashboard(ctx context.Context, f thread.Filter) (*Dashboard, error) {
	comments, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	d := &Dashboard{
		Filter:  f,
		Threads: thread.Reconcile(comments, f),
		Total:   len(comments),
		Posts:   make([]string, 0),
	}
	seen := make(map[string]bool)
	for _, c := range comments {
		if c.Approved {
			d.ApprovedCount++
		} else {
			d.PendingCount++
		}
		if !seen[c.PostSlug] {
			seen[c.PostSlug] = true
			d.Posts = append(d.Posts, c.PostSlug)
		}
	}
	sort.Strings(d.Posts)
	return d, nil
}

// ListAll 后台使用的扁平列表
func (s *ModerationService) ListAll(ctx context.Context) ([]models.Comment, error) {
	return s.store.ListAll(ctx)
}

// Approve 审核通过，重复调用无副作用
func (s *ModerationService) Approve(ctx context.Context, mod Moderator, id string) error {
	if !mod.Valid() {
		return ErrUnauthorized
	}
	err := s.store.Approve(ctx, id)
	s.metrics.RecordModeration("approve", err)
	if err != nil && !errors.Is(err, models.ErrCommentNotFound) {
		s.log.Error("approve comment failed", zap.String("comment_id", id), zap.Error(err))
	}
	return err
}

// Reply 在面板中回复某条评论。回复挂在目标所在线程的顶层评论下，
// 并 @ 目标作者
func (s *ModerationService) Reply(ctx context.Context, mod Moderator, targetID, content string) (*models.Comment, error) {
	if !mod.Valid() {
		return nil, ErrUnauthorized
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("content", "Reply content is required")
	}
	if tooLong(content, MaxContentLength) {
		return nil, invalid("content", "Content is too long (max 2000 characters)")
	}

	target, err := s.store.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}

	parentID := target.Parent()
	if parentID == "" {
		parentID = target.ID
	}
	reply := &models.Comment{
		PostSlug:      target.PostSlug,
		Author:        mod.Name,
		Content:       content,
		Approved:      true,
		IsAdmin:       true,
		ParentID:      &parentID,
		MentionedUser: target.Author,
	}
	err = s.store.Create(ctx, reply)
	s.metrics.RecordModeration("reply", err)
	if err != nil {
		s.log.Error("create reply failed", zap.String("comment_id", targetID), zap.Error(err))
		return nil, err
	}
	return reply, nil
}

// PostReply 兼容旧接口的管理员回复，字段由调用方给出
func (s *ModerationService) PostReply(ctx context.Context, mod Moderator, in ReplyInput) (*models.Comment, error) {
	if !mod.Valid() {
		return nil, ErrUnauthorized
	}
	in.PostSlug = strings.TrimSpace(in.PostSlug)
	in.Author = strings.TrimSpace(in.Author)
	in.Content = strings.TrimSpace(in.Content)
	in.ParentID = strings.TrimSpace(in.ParentID)

	if in.PostSlug == "" || in.Author == "" || in.Content == "" {
		return nil, invalid("", "Missing required fields")
	}
	if tooLong(in.Content, MaxContentLength) {
		return nil, invalid("content", "Content is too long (max 2000 characters)")
	}
	if tooLong(in.Author, MaxAuthorLength) {
		return nil, invalid("author", "Name is too long (max 100 characters)")
	}

	reply := &models.Comment{
		PostSlug:      in.PostSlug,
		Author:        in.Author,
		Content:       in.Content,
		Approved:      true,
		IsAdmin:       true,
		MentionedUser: strings.TrimSpace(in.MentionedUser),
	}
	if in.ParentID != "" {
		if err := checkParent(ctx, s.store, in.PostSlug, in.ParentID); err != nil {
			return nil, err
		}
		reply.ParentID = &in.ParentID
	}

	err := s.store.Create(ctx, reply)
	s.metrics.RecordModeration("reply", err)
	if err != nil {
		s.log.Error("create reply failed", zap.String("post_slug", in.PostSlug), zap.Error(err))
		return nil, err
	}
	return reply, nil
}

// Preview 统计将被一并删除的回复数
func (s *ModerationService) Preview(ctx context.Context, id string) (*DeletePreview, error) {
	target, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	p := buildPreview(*target, thread.CountReplies(id, comments))
	return &p, nil
}

func buildPreview(target models.Comment, replies int) DeletePreview {
	return DeletePreview{
		ID:                   target.ID,
		IsRoot:               target.IsRoot(),
		ReplyCount:           replies,
		RequiresConfirmation: replies > 0,
		Message:              DeletePrompt(target.IsRoot(), replies),
	}
}

// DeletePrompt 删除确认文案，面板模板也直接使用
func DeletePrompt(isRoot bool, replies int) string {
	noun := replyNoun(replies)
	switch {
	case replies <= 0:
		return "Delete this comment?"
	case isRoot:
		return fmt.Sprintf("Are you sure you want to delete this comment?\n\nThis will also delete %d %s in this thread.\n\nThis action cannot be undone.", replies, noun)
	default:
		return fmt.Sprintf("This comment has %d %s.\n\nDeleting it will also delete all replies. Continue?", replies, noun)
	}
}

func replyNoun(n int) string {
	if n == 1 {
		return "reply"
	}
	return "replies"
}

// Delete 删除评论及其全部回复。有回复且未确认时返回 *ConfirmationError
func (s *ModerationService) Delete(ctx context.Context, mod Moderator, id string, confirmed bool) (*DeleteResult, error) {
	if !mod.Valid() {
		return nil, ErrUnauthorized
	}

	target, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	preview := buildPreview(*target, thread.CountReplies(id, comments))
	if preview.RequiresConfirmation && !confirmed {
		return nil, &ConfirmationError{Preview: preview}
	}

	res, err := thread.CascadeDelete(ctx, id, comments, s.store)
	s.metrics.RecordModeration("delete", err)
	s.metrics.AddCascadeDeleted(len(res.Deleted))
	if err != nil {
		s.log.Error("cascade delete stopped",
			zap.String("comment_id", id),
			zap.Strings("deleted", res.Deleted),
			zap.Error(err),
		)
		return nil, err
	}

	out := &DeleteResult{ID: id, Deleted: res.Deleted, Missing: res.Missing, Message: "Comment deleted"}
	if preview.ReplyCount > 0 {
		out.Message = fmt.Sprintf("Comment and %d %s deleted", preview.ReplyCount, replyNoun(preview.ReplyCount))
	}
	s.log.Info("comment deleted",
		zap.String("comment_id", id),
		zap.String("moderator", mod.Name),
		zap.Int("removed", res.Total()),
	)
	return out, nil
}

// checkParent 父评论必须存在且属于同一篇文章
func checkParent(ctx context.Context, s store.CommentStore, postSlug, parentID string) error {
	parent, err := s.Get(ctx, parentID)
	if errors.Is(err, models.ErrCommentNotFound) {
		return ErrParentNotFound
	}
	if err != nil {
		return err
	}
	if parent.PostSlug != postSlug {
		return ErrParentMismatch
	}
	return nil
}
