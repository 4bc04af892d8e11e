package main

import (
	"math/rand/v2"
	"testing"
	"time"

	"digitalaxis/internal/thread"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_ProducesValidForests(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	comments := generate(rand.New(rand.NewPCG(1, 2)), now, seedOptions{
		Posts:        []string{"a", "b"},
		Threads:      4,
		MaxDepth:     3,
		MaxReplies:   3,
		PendingRatio: 0.3,
		Admin:        "DigitalAxis",
	})
	require.NotEmpty(t, comments)

	byID := map[string]int{}
	for i, c := range comments {
		byID[c.ID] = i
	}

	roots := 0
	for _, c := range comments {
		assert.False(t, c.CreatedAt.After(now))
		if c.IsRoot() {
			roots++
			continue
		}
		pi, ok := byID[c.Parent()]
		require.True(t, ok, "parent of %s must exist", c.ID)
		parent := comments[pi]
		assert.Equal(t, parent.PostSlug, c.PostSlug)
		assert.False(t, c.CreatedAt.Before(parent.CreatedAt))
		assert.Equal(t, parent.Author, c.MentionedUser)
	}
	assert.Equal(t, 8, roots)

	// 每条评论都能在树中找到
	seen := 0
	thread.Walk(thread.Reconcile(comments, thread.Filter{}), func(*thread.Node) { seen++ })
	assert.Equal(t, len(comments), seen)
}

func TestGenerate_RespectsMaxDepth(t *testing.T) {
	comments := generate(rand.New(rand.NewPCG(3, 4)), time.Now(), seedOptions{
		Posts: []string{"deep"}, Threads: 3, MaxDepth: 2, MaxReplies: 4,
	})

	thread.Walk(thread.Reconcile(comments, thread.Filter{}), func(n *thread.Node) {
		assert.LessOrEqual(t, n.Depth, 2)
	})
}

func TestSplitSlugs(t *testing.T) {
	assert.Equal(t, []string{"hello-world", "second-post"}, splitSlugs("Hello World, second-post,,"))
	assert.Empty(t, splitSlugs(""))
}
