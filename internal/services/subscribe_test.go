package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"digitalaxis/internal/models"
	"digitalaxis/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSubscribe(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewSubscribeService(store.NewMemorySubscriberStore(), mailer, zap.NewNop(), nil)

	sub, err := svc.Subscribe(testCtx, "  Reader@Example.com ", "pasta")
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "reader@example.com", sub.Email)
	assert.Equal(t, "website", sub.Source)
	assert.Equal(t, "pasta", sub.PostSlug)
	assert.False(t, sub.Verified)
	assert.False(t, sub.Unsubscribed)
	assert.Equal(t, []string{"reader@example.com"}, mailer.welcomes)

	_, err = svc.Subscribe(testCtx, "READER@example.com", "")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestSubscribe_Validation(t *testing.T) {
	svc := NewSubscribeService(store.NewMemorySubscriberStore(), nil, zap.NewNop(), nil)

	tests := []struct {
		email string
		msg   string
	}{
		{"", "Email is required"},
		{"not-an-email", "Invalid email address"},
		{"a b@example.com", "Invalid email address"},
		{strings.Repeat("a", 250) + "@example.com", "Email address is too long"},
	}
	for _, tt := range tests {
		_, err := svc.Subscribe(testCtx, tt.email, "")
		require.ErrorIs(t, err, ErrValidation, tt.email)
		assert.Equal(t, tt.msg, err.Error())
	}
}

// 并发写入时由存储层唯一约束报告重复
type racingSubscriberStore struct {
	store.SubscriberStore
}

func (racingSubscriberStore) ExistsEmail(context.Context, string) (bool, error) { return false, nil }

func TestSubscribe_DuplicateCaughtByStore(t *testing.T) {
	mem := store.NewMemorySubscriberStore()
	require.NoError(t, mem.Create(testCtx, &models.Subscriber{Email: "dup@example.com", Source: "website"}))
	svc := NewSubscribeService(racingSubscriberStore{mem}, nil, zap.NewNop(), nil)

	_, err := svc.Subscribe(testCtx, "dup@example.com", "")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestExportCSV(t *testing.T) {
	s := store.NewMemorySubscriberStore()
	svc := NewSubscribeService(s, nil, zap.NewNop(), nil)
	_, err := svc.Subscribe(testCtx, "a@example.com", "pasta")
	require.NoError(t, err)
	_, err = svc.Subscribe(testCtx, "b@example.com", "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(testCtx, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Email,Subscribed At,Blog Post", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "b@example.com,"))
	assert.True(t, strings.HasSuffix(lines[1], ",N/A"))
	assert.True(t, strings.HasSuffix(lines[2], ",pasta"))

	ts := strings.Split(lines[2], ",")[1]
	_, err = time.Parse(time.RFC3339, ts)
	assert.NoError(t, err)
}

func TestSubscribe_ModelDefaults(t *testing.T) {
	s := store.NewMemorySubscriberStore()
	svc := NewSubscribeService(s, nil, zap.NewNop(), nil)
	_, err := svc.Subscribe(testCtx, "x@example.com", "")
	require.NoError(t, err)

	list, err := svc.List(testCtx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.Subscriber{
		ID:           list[0].ID,
		Email:        "x@example.com",
		SubscribedAt: list[0].SubscribedAt,
		Source:       "website",
	}, list[0])
}
