package handlers

import (
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"

	"digitalaxis/internal/services"
	"digitalaxis/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const feedSize = 20

var (
	blockRegex = regexp.MustCompile(`(?s)(<(?:p|div|h[1-6]|ul|ol|blockquote|pre)[^>]*>.*?</(?:p|div|h[1-6]|ul|ol|blockquote|pre)>)`)
	tagRegex   = regexp.MustCompile(`<[^>]*>`)
)

type SEOHandler struct {
	content     *services.ContentService
	siteURL     string
	indexNowKey string
	log         *zap.Logger
	now         func() time.Time
}

func NewSEOHandler(content *services.ContentService, siteURL, indexNowKey string, log *zap.Logger) *SEOHandler {
	return &SEOHandler{
		content:     content,
		siteURL:     strings.TrimRight(siteURL, "/"),
		indexNowKey: indexNowKey,
		log:         log,
		now:         time.Now,
	}
}

// RobotsTxt 返回robots.txt内容
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

# 管理后台和接口
Disallow: /admin/
Disallow: /api/

Sitemap: %s/sitemap.xml
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

// SitemapXML 动态生成sitemap.xml
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	posts, err := h.content.ListPosts(c.Request.Context())
	if err != nil {
		h.log.Error("sitemap: list posts failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to build sitemap")
		return
	}
	now := h.now()

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
`)

	// 首页和搜索页
	writeURL(&b, h.siteURL+"/", now.Format("2006-01-02"), "daily", 1.0)
	writeURL(&b, h.siteURL+"/search", now.Format("2006-01-02"), "weekly", 0.5)

	for _, p := range posts {
		// 根据文章新旧程度调整优先级
		days := now.Sub(p.Date).Hours() / 24
		priority := 0.6
		changefreq := "monthly"
		if days < 7 {
			priority = 0.8
			changefreq = "daily"
		} else if days < 30 {
			priority = 0.7
			changefreq = "weekly"
		}
		writeURL(&b, h.content.PostURL(p.Slug), p.Date.Format("2006-01-02"), changefreq, priority)
	}

	b.WriteString(`</urlset>`)

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

func writeURL(b *strings.Builder, loc, lastmod, changefreq string, priority float64) {
	fmt.Fprintf(b, `  <url>
    <loc>%s</loc>
    <lastmod>%s</lastmod>
    <changefreq>%s</changefreq>
    <priority>%.1f</priority>
  </url>
`, escapeXML(loc), lastmod, changefreq, priority)
}

// RSSFeed 生成RSS 2.0 feed
func (h *SEOHandler) RSSFeed(c *gin.Context) {
	posts, err := h.content.ListPosts(c.Request.Context())
	if err != nil {
		h.log.Error("feed: list posts failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to build feed")
		return
	}
	if len(posts) > feedSize {
		posts = posts[:feedSize]
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>` + escapeXML(SiteName) + `</title>
    <link>` + h.siteURL + `</link>
    <description>Articles and notes from ` + escapeXML(SiteName) + `</description>
    <language>en</language>
    <lastBuildDate>` + h.now().Format(time.RFC1123Z) + `</lastBuildDate>
    <atom:link href="` + h.siteURL + `/feed.xml" rel="self" type="application/rss+xml"/>
`)

	for _, p := range posts {
		link := h.content.PostURL(p.Slug)
		content := truncateByParagraph(string(h.content.Render(p)), 3)
		content += fmt.Sprintf(`<p><a href="%s">Read the full post and join the discussion →</a></p>`, link)

		b.WriteString(`    <item>
      <title>` + escapeXML(p.Title) + `</title>
      <link>` + link + `</link>
      <description><![CDATA[` + content + `]]></description>
      <author>` + escapeXML(p.Author) + `</author>
`)
		for _, tag := range p.Tags {
			b.WriteString(`      <category>` + escapeXML(tag) + `</category>
`)
		}
		b.WriteString(`      <pubDate>` + p.Date.Format(time.RFC1123Z) + `</pubDate>
      <guid isPermaLink="true">` + link + `</guid>
    </item>
`)
	}

	b.WriteString(`  </channel>
</rss>`)

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

// IndexNowKey 搜索引擎用来校验站点所有权
func (h *SEOHandler) IndexNowKey(c *gin.Context) {
	if h.indexNowKey == "" {
		c.String(http.StatusNotFound, "Not found")
		return
	}
	c.String(http.StatusOK, h.indexNowKey)
}

func escapeXML(s string) string {
	return html.EscapeString(s)
}

// truncateByParagraph 按段落截取HTML，保留前几个完整块级元素
func truncateByParagraph(content string, maxBlocks int) string {
	matches := blockRegex.FindAllString(content, maxBlocks)
	if len(matches) == 0 {
		// 没有块级元素，回退到纯文本截取
		return utils.Truncate(html.EscapeString(tagRegex.ReplaceAllString(content, "")), 300)
	}
	return strings.Join(matches, "\n")
}
