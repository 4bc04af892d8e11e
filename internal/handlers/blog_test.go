package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlogIndex(t *testing.T) {
	app := newTestApp(t, appOptions{})
	w := app.client().get("/")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Creamy Tomato Pasta")
	assert.Contains(t, body, "Winter Soup")
	assert.Contains(t, body, `href="/blog/pasta"`)
	// 新文章在前
	assert.Less(t, strings.Index(body, "Creamy Tomato Pasta"), strings.Index(body, "Winter Soup"))
}

func TestBlogPost_RendersBodyAndPublicThread(t *testing.T) {
	app := newTestApp(t, appOptions{})
	w := app.client().get("/blog/pasta")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="ingredients"`)
	assert.Contains(t, body, "<li>tomatoes</li>")
	assert.Contains(t, body, "4 Comments")
	for _, id := range []string{"1", "2", "3", "4"} {
		assert.Contains(t, body, `id="comment-`+id+`"`)
	}
	// 访客页面不展示邮箱和其他文章的评论
	assert.NotContains(t, body, "1@example.com")
	assert.NotContains(t, body, "content 5")
}

func TestBlogPost_HidesPendingComments(t *testing.T) {
	app := newTestApp(t, appOptions{})
	w := app.client().get("/blog/soup")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "0 Comments")
	assert.NotContains(t, w.Body.String(), "content 5")
}

func TestBlogPost_NotFound(t *testing.T) {
	app := newTestApp(t, appOptions{})
	w := app.client().get("/blog/missing")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Post not found")
}

func TestSearch(t *testing.T) {
	app := newTestApp(t, appOptions{})
	c := app.client()

	w := c.get("/search?q=tomato")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Creamy Tomato Pasta")
	assert.NotContains(t, w.Body.String(), "Winter Soup")

	w = c.get("/api/search?q=HEARTY")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, float64(1), out["total"])
	results := out["results"].([]any)
	assert.Equal(t, "soup", results[0].(map[string]any)["slug"])
	assert.Equal(t, "/blog/soup", results[0].(map[string]any)["url"])

	w = c.get("/api/search?q=")
	out = decode(t, w)
	assert.Equal(t, float64(0), out["total"])
}

func TestAdminPosts_PublishAndDelete(t *testing.T) {
	app := newTestApp(t, appOptions{})
	c := app.login(t)

	w := c.postJSON("/api/admin/posts", map[string]any{
		"title":   "Lemon Risotto",
		"content": "Stir *slowly*.",
		"tags":    []string{"rice"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "true", w.Header().Get("HX-Refresh"))
	out := decode(t, w)
	assert.Equal(t, siteURL+"/blog/lemon-risotto", out["url"])
	assert.Contains(t, app.scheduler.urls, siteURL+"/blog/lemon-risotto")

	// 缓存已失效，新文章立即可见
	assert.Equal(t, http.StatusOK, c.get("/blog/lemon-risotto").Code)

	w = c.delete("/api/admin/posts/lemon-risotto")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, c.get("/blog/lemon-risotto").Code)

	w = c.delete("/api/admin/posts/lemon-risotto")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Post not found", decode(t, w)["error"])
}

func TestAdminPosts_Validation(t *testing.T) {
	app := newTestApp(t, appOptions{})
	c := app.login(t)

	w := c.postJSON("/api/admin/posts", map[string]any{"title": "No body"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Title and content are required", decode(t, w)["error"])
}

func TestAdminPosts_ReadOnlySource(t *testing.T) {
	app := newTestApp(t, appOptions{readOnly: true})
	c := app.login(t)

	w := c.postJSON("/api/admin/posts", map[string]any{"title": "Draft", "content": "x"})
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Content source is read-only", decode(t, w)["error"])
}

func TestAdminPosts_RequireLogin(t *testing.T) {
	app := newTestApp(t, appOptions{})
	w := app.client().postJSON("/api/admin/posts", map[string]any{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
