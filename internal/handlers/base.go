package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"digitalaxis/internal/middleware"
	"digitalaxis/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SiteName 页面标题中的站点名
var SiteName = "DigitalAxis"

// Render helper to inject common variables like the current moderator
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	mod := middleware.CurrentModerator(c)
	obj["Moderator"] = mod
	obj["IsAdmin"] = mod.Valid()
	obj["SiteName"] = SiteName
	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// TemplateFuncs 页面模板需要的业务函数，加载模板时传入
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"deletePrompt": services.DeletePrompt,
	}
}

// HtmxRedirect HTMX 通过响应头在客户端跳转
func HtmxRedirect(c *gin.Context, path string) {
	c.Header("HX-Redirect", path)
	c.Status(http.StatusOK)
}

// htmxRefresh 写操作之后让面板重新拉取数据
func htmxRefresh(c *gin.Context) {
	c.Header("HX-Refresh", "true")
}

// RenderError renders the shared error page.
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message, "Code": code})
}

// statusFor 把业务错误映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrParentNotFound),
		errors.Is(err, services.ErrParentMismatch):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrPostNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConfirmationRequired),
		errors.Is(err, services.ErrAlreadySubscribed):
		return http.StatusConflict
	case errors.Is(err, services.ErrReadOnlySource):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// msg 面向用户的错误文案。5xx 统一使用调用方给出的 fallback，不暴露内部错误
func msg(err error, fallback string) string {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, services.ErrUnauthorized):
		return "Unauthorized"
	case errors.Is(err, services.ErrCommentNotFound):
		return "Comment not found"
	case errors.Is(err, services.ErrPostNotFound):
		return "Post not found"
	case errors.Is(err, services.ErrParentNotFound):
		return "Parent comment not found"
	case errors.Is(err, services.ErrParentMismatch):
		return "Parent comment belongs to another post"
	case errors.Is(err, services.ErrAlreadySubscribed):
		return "Email already subscribed"
	case errors.Is(err, services.ErrReadOnlySource):
		return "Content source is read-only"
	default:
		return fallback
	}
}

// jsonError 写入 {"error": ...}，服务端错误同时记录日志
func jsonError(c *gin.Context, log *zap.Logger, err error, fallback string, fields ...zap.Field) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.Error(fallback, append(fields, zap.Error(err))...)
	}
	c.JSON(code, gin.H{"error": msg(err, fallback)})
}
