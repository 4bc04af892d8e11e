package handlers_test

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe(t *testing.T) {
	app := newTestApp(t, appOptions{})
	c := app.client()

	w := c.postJSON("/api/subscribe", map[string]any{"email": "Reader@Example.com", "postSlug": "pasta"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, "Successfully subscribed to newsletter", out["message"])
	assert.NotEmpty(t, out["subscriberId"])

	// 大小写不同也视为重复
	w = c.postJSON("/api/subscribe", map[string]any{"email": "reader@example.COM"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email already subscribed", decode(t, w)["error"])
}

func TestSubscribe_Validation(t *testing.T) {
	app := newTestApp(t, appOptions{})
	c := app.client()

	w := c.postJSON("/api/subscribe", map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email address", decode(t, w)["error"])

	w = c.postJSON("/api/subscribe", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email is required", decode(t, w)["error"])
}

func TestSubscribers_AdminListAndExport(t *testing.T) {
	app := newTestApp(t, appOptions{})
	c := app.login(t)

	require.Equal(t, http.StatusCreated, c.postJSON("/api/subscribe", map[string]any{"email": "a@example.com", "postSlug": "pasta"}).Code)
	require.Equal(t, http.StatusCreated, c.postJSON("/api/subscribe", map[string]any{"email": "b@example.com"}).Code)

	out := decode(t, c.get("/api/admin/subscribers"))
	assert.Equal(t, float64(2), out["total"])
	assert.Len(t, out["subscribers"], 2)

	w := c.get("/api/admin/subscribers/export")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Regexp(t, `^attachment; filename="subscribers-\d{4}-\d{2}-\d{2}\.csv"$`, w.Header().Get("Content-Disposition"))

	rows, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Email", "Subscribed At", "Blog Post"}, rows[0])

	posts := map[string]string{}
	for _, row := range rows[1:] {
		posts[row[0]] = row[2]
	}
	assert.Equal(t, map[string]string{"a@example.com": "pasta", "b@example.com": "N/A"}, posts)
}

func TestSubscribers_RequireLogin(t *testing.T) {
	app := newTestApp(t, appOptions{})
	w := app.client().get("/api/admin/subscribers/export")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
