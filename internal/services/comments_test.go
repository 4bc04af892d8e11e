package services

import (
	"strings"
	"testing"

	"digitalaxis/internal/store"
	"digitalaxis/internal/thread"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCommentService(s store.CommentStore, m *recordingMailer) *CommentService {
	return NewCommentService(s, m, zap.NewNop(), nil)
}

func validInput() CommentInput {
	return CommentInput{
		PostSlug: "pasta",
		Author:   "  Maria ",
		Email:    " Maria@Example.COM ",
		Content:  "  Made this tonight, delicious!  ",
	}
}

func TestSubmit_CreatesApprovedComment(t *testing.T) {
	s := store.NewMemoryCommentStore()
	mailer := &recordingMailer{}
	svc := newCommentService(s, mailer)

	c, err := svc.Submit(testCtx, validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.True(t, c.Approved)
	assert.False(t, c.IsAdmin)
	assert.True(t, c.IsRoot())
	assert.Equal(t, "Maria", c.Author)
	assert.Equal(t, "maria@example.com", c.Email)
	assert.Equal(t, "Made this tonight, delicious!", c.Content)

	require.Len(t, mailer.comments, 1)
	assert.Equal(t, c.ID, mailer.comments[0].ID)
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *CommentInput)
		msg    string
	}{
		{"missing author", func(in *CommentInput) { in.Author = " " }, "Please fill in all fields"},
		{"missing email", func(in *CommentInput) { in.Email = "" }, "Please fill in all fields"},
		{"missing content", func(in *CommentInput) { in.Content = "\n" }, "Please fill in all fields"},
		{"bad email", func(in *CommentInput) { in.Email = "maria@example" }, "Please enter a valid email address"},
		{"author too long", func(in *CommentInput) { in.Author = strings.Repeat("a", 101) }, "Name is too long (max 100 characters)"},
		{"content too long", func(in *CommentInput) { in.Content = strings.Repeat("a", 2001) }, "Comment is too long (max 2000 characters)"},
		{"missing post", func(in *CommentInput) { in.PostSlug = "" }, "Missing post"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemoryCommentStore()
			svc := newCommentService(s, &recordingMailer{})
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Submit(testCtx, in)
			require.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tt.msg, err.Error())

			all, _ := s.ListAll(testCtx)
			assert.Empty(t, all)
		})
	}
}

func TestSubmit_LengthLimitsAreInclusive(t *testing.T) {
	svc := newCommentService(store.NewMemoryCommentStore(), &recordingMailer{})
	in := validInput()
	in.Author = strings.Repeat("é", 100)
	in.Content = strings.Repeat("漢", 2000)

	_, err := svc.Submit(testCtx, in)
	assert.NoError(t, err)
}

func TestSubmit_Reply(t *testing.T) {
	s := seededStore()
	s.Seed(seedComment("soup-1", "", "soup", true, 9))
	svc := newCommentService(s, &recordingMailer{})

	in := validInput()
	in.ParentID = "4"
	in.MentionedUser = "author-4"
	c, err := svc.Submit(testCtx, in)
	require.NoError(t, err)
	assert.Equal(t, "4", c.Parent())
	assert.Equal(t, "author-4", c.MentionedUser)

	in.ParentID = "ghost"
	_, err = svc.Submit(testCtx, in)
	assert.ErrorIs(t, err, ErrParentNotFound)

	in.ParentID = "soup-1"
	_, err = svc.Submit(testCtx, in)
	assert.ErrorIs(t, err, ErrParentMismatch)
}

func TestThread_ApprovedOnlyAndRedacted(t *testing.T) {
	s := store.NewMemoryCommentStore()
	s.Seed(
		seedComment("a", "", "pasta", true, 1),
		seedComment("b", "a", "pasta", false, 2),
		seedComment("c", "b", "pasta", true, 3),
		seedComment("d", "", "soup", true, 4),
	)
	svc := newCommentService(s, nil)

	nodes, err := svc.Thread(testCtx, "pasta")
	require.NoError(t, err)

	seen := map[string]*thread.Node{}
	thread.Walk(nodes, func(n *thread.Node) {
		seen[n.Comment.ID] = n
		assert.Empty(t, n.Comment.Email)
	})
	assert.Len(t, seen, 2)
	assert.NotContains(t, seen, "b")
	// c 的父评论未公开，提升为顶层
	require.Len(t, nodes, 2)
	assert.Equal(t, "a", nodes[0].Comment.ID)
	assert.Equal(t, "c", nodes[1].Comment.ID)
}

func TestThread_StoreFailure(t *testing.T) {
	svc := newCommentService(&flakyStore{CommentStore: seededStore(), failList: true}, nil)

	_, err := svc.Thread(testCtx, "pasta")
	assert.ErrorIs(t, err, errStoreDown)
}

func TestCount(t *testing.T) {
	s := store.NewMemoryCommentStore()
	s.Seed(
		seedComment("a", "", "pasta", true, 1),
		seedComment("b", "a", "pasta", false, 2),
	)
	svc := newCommentService(s, nil)

	n, err := svc.Count(testCtx, "pasta")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
