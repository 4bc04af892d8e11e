package router

import (
	"net/http"
	"time"

	"digitalaxis/internal/handlers"
	"digitalaxis/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers 路由用到的全部 handler，由 main 组装
type Handlers struct {
	Auth      *handlers.AuthHandler
	Admin     *handlers.AdminHandler
	Blog      *handlers.BlogHandler
	Comments  *handlers.CommentHandler
	Subscribe *handlers.SubscribeHandler
	SEO       *handlers.SEOHandler
	Metrics   http.Handler // 可选，/metrics
}

func RegisterRoutes(r *gin.Engine, h Handlers, limiter *middleware.RateLimiter) {
	// 公共路由 (Public Routes)
	r.GET("/", h.Blog.Index)                 // 文章列表
	r.GET("/blog/:slug", h.Blog.Post)        // 文章详情与评论
	r.GET("/search", h.Blog.Search)          // 搜索页面
	r.GET("/api/search", h.Blog.SearchAPI)   // 搜索接口
	r.GET("/robots.txt", h.SEO.RobotsTxt)    // robots
	r.GET("/sitemap.xml", h.SEO.SitemapXML)  // 站点地图
	r.GET("/feed.xml", h.SEO.RSSFeed)        // RSS
	r.GET("/indexnow-key.txt", h.SEO.IndexNowKey)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}

	r.GET("/api/posts/:slug/comments", h.Comments.Thread) // 公开评论树
	r.POST("/api/posts/:slug/comments",
		limiter.Limit("comments", 5, time.Minute), h.Comments.Create) // 访客评论
	r.POST("/api/subscribe",
		limiter.Limit("subscribe", 5, time.Hour), h.Subscribe.Subscribe) // 邮件订阅

	r.GET("/admin/login", h.Auth.ShowLogin) // 登录页面
	r.POST("/admin/login",
		limiter.Limit("login", 10, 15*time.Minute), h.Auth.Login) // 提交登录
	r.POST("/admin/logout", h.Auth.Logout) // 退出登录

	// 管理页面 (Admin Pages)
	admin := r.Group("/admin")
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("", func(c *gin.Context) { c.Redirect(http.StatusFound, "/admin/comments") })
		admin.GET("/comments", h.Admin.Comments) // 审核面板
	}

	// 管理接口 (Admin API)
	api := r.Group("/api")
	api.Use(middleware.AdminRequired())
	{
		api.GET("/comments", h.Admin.ListComments)     // 全部评论
		api.POST("/comments/reply", h.Admin.PostReply) // 兼容旧版的回复接口

		api.GET("/admin/comments", h.Admin.DashboardJSON)                    // 面板数据
		api.POST("/admin/comments/:id/approve", h.Admin.Approve)             // 审核通过
		api.POST("/admin/comments/:id/reply", h.Admin.Reply)                 // 回复
		api.GET("/admin/comments/:id/delete-preview", h.Admin.DeletePreview) // 删除预览
		api.DELETE("/admin/comments/:id", h.Admin.Delete)                    // 级联删除

		api.GET("/admin/subscribers", h.Subscribe.List)          // 订阅者列表
		api.GET("/admin/subscribers/export", h.Subscribe.Export) // 导出 CSV

		api.POST("/admin/posts", h.Blog.Publish)          // 发布文章
		api.DELETE("/admin/posts/:slug", h.Blog.DeletePost) // 删除文章
	}
}
