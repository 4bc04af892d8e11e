package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"digitalaxis/internal/middleware"
	"digitalaxis/internal/services"
	"digitalaxis/internal/thread"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler 评论审核面板及其 JSON 接口
type AdminHandler struct {
	moderation *services.ModerationService
	log        *zap.Logger
}

func NewAdminHandler(moderation *services.ModerationService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{moderation: moderation, log: log}
}

func filterFromQuery(c *gin.Context) thread.Filter {
	return thread.Filter{
		Status:   thread.ParseStatus(c.Query("status")),
		PostSlug: c.Query("post"),
	}
}

// Comments 审核面板页面
func (h *AdminHandler) Comments(c *gin.Context) {
	d, err := h.moderation.Dashboard(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		h.log.Error("Failed to load comments", zap.Error(err))
		RenderError(c, http.StatusInternalServerError, "Failed to load comments")
		return
	}

	Render(c, http.StatusOK, "admin/comments.html", gin.H{
		"Title":     "Comment Moderation",
		"Dashboard": d,
		"Statuses":  []thread.Status{thread.StatusAll, thread.StatusPending, thread.StatusApproved},
	})
}

// DashboardJSON 与面板页面相同的数据
func (h *AdminHandler) DashboardJSON(c *gin.Context) {
	d, err := h.moderation.Dashboard(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		jsonError(c, h.log, err, "Failed to load comments")
		return
	}
	c.JSON(http.StatusOK, d)
}

// ListComments 全部评论，按时间倒序
func (h *AdminHandler) ListComments(c *gin.Context) {
	comments, err := h.moderation.ListAll(c.Request.Context())
	if err != nil {
		jsonError(c, h.log, err, "Failed to load comments")
		return
	}
	c.JSON(http.StatusOK, comments)
}

// Approve 审核通过
func (h *AdminHandler) Approve(c *gin.Context) {
	id := c.Param("id")
	if err := h.moderation.Approve(c.Request.Context(), middleware.CurrentModerator(c), id); err != nil {
		jsonError(c, h.log, err, "Failed to approve comment", zap.String("comment_id", id))
		return
	}

	htmxRefresh(c)
	c.JSON(http.StatusOK, gin.H{"message": "Comment approved", "id": id})
}

type replyRequest struct {
	Content string `json:"content" form:"content"`
}

// Reply 面板内回复某条评论
func (h *AdminHandler) Reply(c *gin.Context) {
	id := c.Param("id")
	var req replyRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	reply, err := h.moderation.Reply(c.Request.Context(), middleware.CurrentModerator(c), id, req.Content)
	if err != nil {
		jsonError(c, h.log, err, "Failed to create reply", zap.String("comment_id", id))
		return
	}

	htmxRefresh(c)
	c.JSON(http.StatusCreated, reply)
}

// PostReply POST /api/comments/reply，字段完整由调用方提供
func (h *AdminHandler) PostReply(c *gin.Context) {
	var in services.ReplyInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	reply, err := h.moderation.PostReply(c.Request.Context(), middleware.CurrentModerator(c), in)
	if err != nil {
		jsonError(c, h.log, err, "Failed to create reply", zap.String("parent_id", in.ParentID))
		return
	}

	htmxRefresh(c)
	c.JSON(http.StatusCreated, gin.H{"success": true, "comment": reply})
}

// DeletePreview 删除前的确认信息
func (h *AdminHandler) DeletePreview(c *gin.Context) {
	id := c.Param("id")
	p, err := h.moderation.Preview(c.Request.Context(), id)
	if err != nil {
		jsonError(c, h.log, err, "Failed to load comments", zap.String("comment_id", id))
		return
	}
	c.JSON(http.StatusOK, p)
}

// Delete 级联删除。有回复时必须带 confirm=true，否则返回 409 和预览
func (h *AdminHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))

	res, err := h.moderation.Delete(c.Request.Context(), middleware.CurrentModerator(c), id, confirmed)
	if err != nil {
		var ce *services.ConfirmationError
		if errors.As(err, &ce) {
			c.JSON(http.StatusConflict, gin.H{"error": "Confirmation required", "preview": ce.Preview})
			return
		}
		jsonError(c, h.log, err, "Failed to delete comment", zap.String("comment_id", id))
		return
	}

	htmxRefresh(c)
	c.JSON(http.StatusOK, res)
}
