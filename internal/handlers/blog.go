package handlers

import (
	"errors"
	"net/http"
	"strings"

	"digitalaxis/internal/models"
	"digitalaxis/internal/services"
	"digitalaxis/internal/thread"
	"digitalaxis/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const postsPerPage = 10

type BlogHandler struct {
	content  *services.ContentService
	comments *services.CommentService
	siteURL  string
	log      *zap.Logger
}

func NewBlogHandler(content *services.ContentService, comments *services.CommentService, siteURL string, log *zap.Logger) *BlogHandler {
	return &BlogHandler{
		content:  content,
		comments: comments,
		siteURL:  strings.TrimRight(siteURL, "/"),
		log:      log,
	}
}

// Index 文章列表，按日期倒序分页
func (h *BlogHandler) Index(c *gin.Context) {
	posts, err := h.content.ListPosts(c.Request.Context())
	if err != nil {
		h.log.Error("list posts failed", zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Failed to load posts")
		return
	}

	page := utils.AtoiOr(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	totalPages := (len(posts) + postsPerPage - 1) / postsPerPage
	start := (page - 1) * postsPerPage
	if start > len(posts) {
		start = len(posts)
	}
	end := min(start+postsPerPage, len(posts))

	Render(c, http.StatusOK, "blog/index.html", gin.H{
		"Title":       "Blog",
		"Posts":       posts[start:end],
		"Page":        page,
		"TotalPages":  totalPages,
		"HasPrev":     page > 1,
		"HasNext":     page < totalPages,
		"Description": "Articles and notes from " + SiteName,
		"FullURL":     h.siteURL + "/",
	})
}

// Post 文章详情和评论树
func (h *BlogHandler) Post(c *gin.Context) {
	slug := c.Param("slug")
	ctx := c.Request.Context()

	post, err := h.content.Get(ctx, slug)
	if errors.Is(err, models.ErrPostNotFound) {
		RenderError(c, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		h.log.Error("load post failed", zap.String("slug", slug), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Failed to load post")
		return
	}

	// 评论加载失败不影响正文
	nodes, err := h.comments.Thread(ctx, slug)
	if err != nil {
		h.log.Error("Failed to load comments", zap.String("slug", slug), zap.Error(err))
		nodes = []*thread.Node{}
	}
	count := 0
	thread.Walk(nodes, func(*thread.Node) { count++ })

	Render(c, http.StatusOK, "blog/post.html", gin.H{
		"Title":        post.Title,
		"Post":         post,
		"Body":         h.content.Render(*post),
		"Threads":      nodes,
		"CommentCount": count,
		"Description":  post.Excerpt,
		"FullURL":      h.content.PostURL(post.Slug),
	})
}

// Search 搜索页面
func (h *BlogHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	posts, err := h.content.Search(c.Request.Context(), query)
	if err != nil {
		h.log.Error("search posts failed", zap.String("q", query), zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Search failed")
		return
	}

	title := "Search"
	if query != "" {
		title = "Search - " + query
	}
	Render(c, http.StatusOK, "blog/search.html", gin.H{
		"Title": title,
		"Query": query,
		"Posts": posts,
	})
}

type searchResult struct {
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Excerpt string   `json:"excerpt"`
	Date    string   `json:"date"`
	Tags    []string `json:"tags,omitempty"`
	URL     string   `json:"url"`
}

// SearchAPI GET /api/search?q=
func (h *BlogHandler) SearchAPI(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	posts, err := h.content.Search(c.Request.Context(), query)
	if err != nil {
		h.log.Error("search posts failed", zap.String("q", query), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	results := make([]searchResult, 0, len(posts))
	for _, p := range posts {
		results = append(results, searchResult{
			Slug:    p.Slug,
			Title:   p.Title,
			Excerpt: p.Excerpt,
			Date:    p.Date.Format("2006-01-02"),
			Tags:    p.Tags,
			URL:     "/blog/" + p.Slug,
		})
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "results": results, "total": len(results)})
}

// Publish 后台发布或更新文章
func (h *BlogHandler) Publish(c *gin.Context) {
	var in services.PostInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	post, err := h.content.Publish(c.Request.Context(), in)
	if err != nil {
		jsonError(c, h.log, err, "Failed to publish post", zap.String("slug", in.Slug))
		return
	}

	htmxRefresh(c)
	c.JSON(http.StatusCreated, gin.H{"message": "Post published", "post": post, "url": h.content.PostURL(post.Slug)})
}

// DeletePost 后台删除文章
func (h *BlogHandler) DeletePost(c *gin.Context) {
	slug := c.Param("slug")
	if err := h.content.Delete(c.Request.Context(), slug); err != nil {
		jsonError(c, h.log, err, "Failed to delete post", zap.String("slug", slug))
		return
	}

	htmxRefresh(c)
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted", "slug": slug})
}
