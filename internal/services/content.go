package services

import (
	"context"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"digitalaxis/internal/models"
	"digitalaxis/internal/utils"

	"go.uber.org/zap"
)

const (
	postsCacheKey = "content:posts"
	postsCacheTTL = 5 * time.Minute
)

// URLScheduler 文章地址变化后提交给搜索引擎
type URLScheduler interface {
	Schedule(url string)
}

// PostInput 后台发布文章
type PostInput struct {
	Title   string   `json:"title" form:"title"`
	Slug    string   `json:"slug" form:"slug"`
	Author  string   `json:"author" form:"author"`
	Excerpt string   `json:"excerpt" form:"excerpt"`
	Tags    []string `json:"tags" form:"tags"`
	Image   string   `json:"image" form:"image"`
	Content string   `json:"content" form:"content"`
}

type ContentService struct {
	source  PostSource
	cache   *utils.Cache[[]models.Post]
	indexer URLScheduler
	siteURL string
	author  string
	log     *zap.Logger
	now     func() time.Time
}

func NewContentService(source PostSource, indexer URLScheduler, siteURL, defaultAuthor string, log *zap.Logger) (*ContentService, error) {
	cache, err := utils.NewCache[[]models.Post](16)
	if err != nil {
		return nil, fmt.Errorf("create content cache: %w", err)
	}
	return &ContentService{
		source:  source,
		cache:   cache,
		indexer: indexer,
		siteURL: strings.TrimRight(siteURL, "/"),
		author:  defaultAuthor,
		log:     log,
		now:     time.Now,
	}, nil
}

// ListPosts 全部文章，按日期倒序，缓存 5 分钟
func (s *ContentService) ListPosts(ctx context.Context) ([]models.Post, error) {
	if posts, ok := s.cache.Get(postsCacheKey); ok {
		return posts, nil
	}

	posts, err := s.source.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date.After(posts[j].Date)
	})
	s.cache.Set(postsCacheKey, posts, postsCacheTTL)
	return posts, nil
}

func (s *ContentService) Get(ctx context.Context, slug string) (*models.Post, error) {
	posts, err := s.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].Slug == slug {
			p := posts[i]
			return &p, nil
		}
	}
	return nil, models.ErrPostNotFound
}

// Search 不区分大小写匹配标题、正文、摘要、作者和标签。空查询返回空结果
func (s *ContentService) Search(ctx context.Context, q string) ([]models.Post, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return []models.Post{}, nil
	}

	posts, err := s.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Post, 0)
	for _, p := range posts {
		if matchPost(p, q) {
			out = append(out, p)
		}
	}
	return out, nil
}

func matchPost(p models.Post, q string) bool {
	for _, field := range []string{p.Title, p.Content, p.Excerpt, p.Author} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Publish 写入内容仓库并通知搜索引擎
func (s *ContentService) Publish(ctx context.Context, in PostInput) (*models.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if in.Title == "" || in.Content == "" {
		return nil, invalid("", "Title and content are required")
	}

	slug := utils.Slugify(in.Slug)
	if slug == "" {
		slug = utils.Slugify(in.Title)
	}
	if slug == "" {
		return nil, invalid("slug", "Title must contain letters or numbers")
	}

	post := models.Post{
		Slug:    slug,
		Title:   in.Title,
		Content: in.Content,
		Excerpt: strings.TrimSpace(in.Excerpt),
		Date:    s.now().UTC(),
		Author:  strings.TrimSpace(in.Author),
		Tags:    cleanTags(in.Tags),
		Image:   strings.TrimSpace(in.Image),
	}
	if post.Author == "" {
		post.Author = s.author
	}
	if post.Excerpt == "" {
		post.Excerpt = utils.Excerpt(post.Content, 160)
	}

	if err := s.source.Publish(ctx, post); err != nil {
		return nil, fmt.Errorf("publish post %s: %w", slug, err)
	}
	s.cache.Delete(postsCacheKey)
	s.log.Info("post published", zap.String("slug", slug))

	if s.indexer != nil {
		s.indexer.Schedule(s.PostURL(slug))
	}
	return &post, nil
}

func (s *ContentService) Delete(ctx context.Context, slug string) error {
	if err := s.source.Delete(ctx, slug); err != nil {
		return fmt.Errorf("delete post %s: %w", slug, err)
	}
	s.cache.Delete(postsCacheKey)
	s.log.Info("post deleted", zap.String("slug", slug))

	// 删除后同样提交，搜索引擎会重新抓取并发现 404
	if s.indexer != nil {
		s.indexer.Schedule(s.PostURL(slug))
	}
	return nil
}

// PostURL 文章的绝对地址
func (s *ContentService) PostURL(slug string) string {
	return s.siteURL + "/blog/" + slug
}

// PostURLs 全部文章地址，供 sitemap 和定时提交使用
func (s *ContentService) PostURLs(ctx context.Context) ([]string, error) {
	posts, err := s.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(posts))
	for _, p := range posts {
		urls = append(urls, s.PostURL(p.Slug))
	}
	return urls, nil
}

// Render 渲染正文 HTML
func (s *ContentService) Render(p models.Post) template.HTML {
	return utils.RenderMarkdown(p.Content)
}
