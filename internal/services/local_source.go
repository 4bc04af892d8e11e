package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"digitalaxis/internal/models"
)

// ErrReadOnlySource 本地目录只用于开发预览，不支持发布
var ErrReadOnlySource = errors.New("content source is read-only")

// PostSource 文章所在的内容仓库
type PostSource interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	Publish(ctx context.Context, post models.Post) error
	Delete(ctx context.Context, slug string) error
}

// LocalSource 读取本地目录下的 .md 文件
type LocalSource struct {
	Dir string
	now func() time.Time
}

func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{Dir: dir, now: time.Now}
}

func (s *LocalSource) ListPosts(ctx context.Context) ([]models.Post, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return []models.Post{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read posts dir: %w", err)
	}

	posts := make([]models.Post, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := os.ReadFile(filepath.Join(s.Dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read post %s: %w", e.Name(), err)
		}
		posts = append(posts, ParsePost(e.Name(), string(raw), s.now()))
	}
	return posts, nil
}

func (s *LocalSource) Publish(context.Context, models.Post) error { return ErrReadOnlySource }

func (s *LocalSource) Delete(context.Context, string) error { return ErrReadOnlySource }
