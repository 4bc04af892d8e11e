package handlers

import (
	"bytes"
	"net/http"
	"time"

	"digitalaxis/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SubscribeHandler struct {
	subscribe *services.SubscribeService
	log       *zap.Logger
	now       func() time.Time
}

func NewSubscribeHandler(subscribe *services.SubscribeService, log *zap.Logger) *SubscribeHandler {
	return &SubscribeHandler{subscribe: subscribe, log: log, now: time.Now}
}

type subscribeRequest struct {
	Email    string `json:"email" form:"email"`
	PostSlug string `json:"postSlug" form:"postSlug"`
}

// Subscribe POST /api/subscribe
func (h *SubscribeHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sub, err := h.subscribe.Subscribe(c.Request.Context(), req.Email, req.PostSlug)
	if err != nil {
		jsonError(c, h.log, err, "Failed to subscribe. Please try again later.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Successfully subscribed to newsletter",
		"subscriberId": sub.ID,
	})
}

// List GET /api/admin/subscribers
func (h *SubscribeHandler) List(c *gin.Context) {
	subs, err := h.subscribe.List(c.Request.Context())
	if err != nil {
		jsonError(c, h.log, err, "Failed to load subscribers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribers": subs, "total": len(subs)})
}

// Export 先写入缓冲区，出错时还能返回 JSON
func (h *SubscribeHandler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.subscribe.ExportCSV(c.Request.Context(), &buf); err != nil {
		jsonError(c, h.log, err, "Failed to export subscribers")
		return
	}

	filename := "subscribers-" + h.now().Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
