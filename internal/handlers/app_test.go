package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"digitalaxis/internal/handlers"
	"digitalaxis/internal/middleware"
	"digitalaxis/internal/models"
	"digitalaxis/internal/router"
	"digitalaxis/internal/services"
	"digitalaxis/internal/store"
	"digitalaxis/internal/utils"
	"digitalaxis/web"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	siteURL       = "https://blog.test"
	adminPassword = "correct horse"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeSource 内存文章仓库
type fakeSource struct {
	mu       sync.Mutex
	posts    map[string]models.Post
	readOnly bool
}

func newFakeSource(posts ...models.Post) *fakeSource {
	s := &fakeSource{posts: map[string]models.Post{}}
	for _, p := range posts {
		s.posts[p.Slug] = p
	}
	return s
}

func (s *fakeSource) ListPosts(context.Context) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeSource) Publish(_ context.Context, p models.Post) error {
	if s.readOnly {
		return services.ErrReadOnlySource
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.Slug] = p
	return nil
}

func (s *fakeSource) Delete(_ context.Context, slug string) error {
	if s.readOnly {
		return services.ErrReadOnlySource
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[slug]; !ok {
		return models.ErrPostNotFound
	}
	delete(s.posts, slug)
	return nil
}

type recordingScheduler struct {
	mu   sync.Mutex
	urls []string
}

func (r *recordingScheduler) Schedule(u string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, u)
}

// brokenStore 读取全部评论时失败
type brokenStore struct {
	store.CommentStore
}

var errStoreDown = errors.New("store unavailable")

func (brokenStore) ListAll(context.Context) ([]models.Comment, error) {
	return nil, errStoreDown
}

func (brokenStore) ListByPost(context.Context, string) ([]models.Comment, error) {
	return nil, errStoreDown
}

type appOptions struct {
	rdb         redis.Cmdable
	commentWrap func(store.CommentStore) store.CommentStore
	readOnly    bool
	indexNowKey string
}

type testApp struct {
	engine      *gin.Engine
	comments    *store.MemoryCommentStore
	subscribers *store.MemorySubscriberStore
	source      *fakeSource
	scheduler   *recordingScheduler
}

func strPtr(s string) *string { return &s }

// seedComment created 为分钟偏移
func seedComment(id, parent, post string, approved bool, created int) models.Comment {
	c := models.Comment{
		ID:        id,
		PostSlug:  post,
		Author:    "author-" + id,
		Email:     id + "@example.com",
		Content:   "content " + id,
		Approved:  approved,
		CreatedAt: time.Date(2025, 1, 1, 0, created, 0, 0, time.UTC),
	}
	if parent != "" {
		c.ParentID = strPtr(parent)
	}
	return c
}

func newTestApp(t *testing.T, opts appOptions) *testApp {
	t.Helper()
	log := zap.NewNop()

	comments := store.NewMemoryCommentStore()
	// pasta: 1 <- 2 <- 4, 1 <- 3；soup: 5 待审核
	comments.Seed(
		seedComment("1", "", "pasta", true, 1),
		seedComment("2", "1", "pasta", true, 2),
		seedComment("3", "1", "pasta", true, 3),
		seedComment("4", "2", "pasta", true, 4),
		seedComment("5", "", "soup", false, 5),
	)
	var commentStore store.CommentStore = comments
	if opts.commentWrap != nil {
		commentStore = opts.commentWrap(comments)
	}
	subscribers := store.NewMemorySubscriberStore()

	source := newFakeSource(
		models.Post{
			Slug: "pasta", Title: "Creamy Tomato Pasta", Author: "Axis",
			Content: "## Ingredients\n\n- tomatoes\n- cream\n", Excerpt: "Weeknight dinner",
			Date: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), Tags: []string{"dinner"},
		},
		models.Post{
			Slug: "soup", Title: "Winter Soup", Author: "Axis",
			Content: "Hearty soup.", Excerpt: "Warm bowl",
			Date: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		},
	)
	source.readOnly = opts.readOnly
	scheduler := &recordingScheduler{}

	content, err := services.NewContentService(source, scheduler, siteURL, "DigitalAxis", log)
	require.NoError(t, err)
	hash, err := utils.HashPassword(adminPassword)
	require.NoError(t, err)

	moderation := services.NewModerationService(commentStore, log, nil)
	commentService := services.NewCommentService(commentStore, nil, log, nil)
	subscribe := services.NewSubscribeService(subscribers, nil, log, nil)

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret-test-secret-test-secret"))))
	r.Use(middleware.LoadModerator("DigitalAxis"))
	renderer, err := web.LoadTemplates(handlers.TemplateFuncs())
	require.NoError(t, err)
	r.HTMLRender = renderer

	router.RegisterRoutes(r, router.Handlers{
		Auth:      handlers.NewAuthHandler(hash, services.NewCaptchaService(), log),
		Admin:     handlers.NewAdminHandler(moderation, log),
		Blog:      handlers.NewBlogHandler(content, commentService, siteURL, log),
		Comments:  handlers.NewCommentHandler(commentService, log),
		Subscribe: handlers.NewSubscribeHandler(subscribe, log),
		SEO:       handlers.NewSEOHandler(content, siteURL, opts.indexNowKey, log),
	}, middleware.NewRateLimiter(opts.rdb, opts.rdb != nil, log))

	return &testApp{
		engine:      r,
		comments:    comments,
		subscribers: subscribers,
		source:      source,
		scheduler:   scheduler,
	}
}

// client 保存 cookie，模拟浏览器会话
type client struct {
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) client() *client {
	return &client{app: a, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.app.engine.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) postJSON(path string, body any) *httptest.ResponseRecorder {
	var r io.Reader = http.NoBody
	if body != nil {
		raw, _ := json.Marshal(body)
		r = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(http.MethodPost, path, r)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *client) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	return c.do(newFormRequest(path, form))
}

func (c *client) delete(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodDelete, path, nil))
}

var captchaRe = regexp.MustCompile(`What is (\d+) ([+-]) (\d+)\?`)

// solveCaptcha 从登录页读出算术题并求解
func solveCaptcha(t *testing.T, body string) string {
	t.Helper()
	m := captchaRe.FindStringSubmatch(body)
	require.Len(t, m, 4, "captcha not found in login page")
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[3])
	if m[2] == "+" {
		return strconv.Itoa(a + b)
	}
	return strconv.Itoa(a - b)
}

// login 走完整的登录流程，返回带管理员会话的 client
func (a *testApp) login(t *testing.T) *client {
	t.Helper()
	c := a.client()
	page := c.get("/admin/login")
	require.Equal(t, http.StatusOK, page.Code)

	w := c.postForm("/admin/login", url.Values{
		"password": {adminPassword},
		"captcha":  {solveCaptcha(t, page.Body.String())},
	})
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/admin/comments", w.Header().Get("Location"))
	return c
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func newFormRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func wrapBroken(s store.CommentStore) store.CommentStore {
	return brokenStore{CommentStore: s}
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
