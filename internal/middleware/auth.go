package middleware

import (
	"net/http"
	"strings"

	"digitalaxis/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	// ModeratorKey gin context 中的审核凭证
	ModeratorKey = "moderator"
	// SessionAdminKey 会话中标记管理员登录
	SessionAdminKey = "admin"
)

// LoadModerator 会话中有管理员标记时，把 Moderator 写入上下文
func LoadModerator(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if ok, _ := session.Get(SessionAdminKey).(bool); ok {
			c.Set(ModeratorKey, services.Moderator{Name: name})
		}
		c.Next()
	}
}

// CurrentModerator 未登录时返回零值
func CurrentModerator(c *gin.Context) services.Moderator {
	if v, ok := c.Get(ModeratorKey); ok {
		if mod, ok := v.(services.Moderator); ok {
			return mod
		}
	}
	return services.Moderator{}
}

// AdminRequired ensures a moderator is logged in.
// API 请求返回 401，页面请求跳转登录页
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentModerator(c).Valid() {
			c.Next()
			return
		}

		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Redirect(http.StatusFound, "/admin/login")
		c.Abort()
	}
}
