package handlers

import (
	"net/http"

	"digitalaxis/internal/services"
	"digitalaxis/internal/thread"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CommentHandler 访客评论接口
type CommentHandler struct {
	comments *services.CommentService
	log      *zap.Logger
}

func NewCommentHandler(comments *services.CommentService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, log: log}
}

// Thread GET /api/posts/:slug/comments
func (h *CommentHandler) Thread(c *gin.Context) {
	slug := c.Param("slug")
	nodes, err := h.comments.Thread(c.Request.Context(), slug)
	if err != nil {
		jsonError(c, h.log, err, "Failed to load comments", zap.String("slug", slug))
		return
	}

	total := 0
	thread.Walk(nodes, func(*thread.Node) { total++ })
	c.JSON(http.StatusOK, gin.H{"comments": nodes, "total": total})
}

// Create POST /api/posts/:slug/comments，支持 JSON 和表单
func (h *CommentHandler) Create(c *gin.Context) {
	var in services.CommentInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	// 路径中的文章优先
	in.PostSlug = c.Param("slug")

	comment, err := h.comments.Submit(c.Request.Context(), in)
	if err != nil {
		jsonError(c, h.log, err, "Failed to post comment", zap.String("slug", in.PostSlug))
		return
	}

	if c.GetHeader("HX-Request") == "true" {
		htmxRefresh(c)
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "comment": comment.Redacted()})
}
