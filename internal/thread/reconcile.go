package thread

import (
	"strings"

	"digitalaxis/internal/models"
)

// Status 审核状态过滤
type Status string

const (
	StatusAll      Status = "all"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

// ParseStatus maps a query value to a Status, defaulting to StatusAll.
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending
	case StatusApproved:
		return StatusApproved
	default:
		return StatusAll
	}
}

// Filter 后台视图的过滤条件，PostSlug 为空表示全部文章
type Filter struct {
	Status   Status
	PostSlug string
}

// Match reports whether c passes both the status and the post predicate.
func (f Filter) Match(c models.Comment) bool {
	switch f.Status {
	case StatusPending:
		if c.Approved {
			return false
		}
	case StatusApproved:
		if !c.Approved {
			return false
		}
	}
	return f.PostSlug == "" || c.PostSlug == f.PostSlug
}

// Node 渲染用的树节点。Depth 只用于缩进，不存储
type Node struct {
	Comment    models.Comment `json:"comment"`
	Depth      int            `json:"depth"`
	ReplyCount int            `json:"replyCount"`
	Children   []*Node        `json:"children"`
}

// Reconcile builds the tree for a filtered view. Only comments passing f are
// rendered, nested by their true parentage. A passing reply whose parent does
// not pass (or no longer exists) is surfaced as a pseudo-root at depth 0, so
// every passing comment appears exactly once.
func Reconcile(comments []models.Comment, f Filter) []*Node {
	idx := Build(comments)
	counts := idx.ReplyCounts(comments)

	pass := make(map[string]bool, len(comments))
	filtered := make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		if f.Match(c) && !pass[c.ID] {
			pass[c.ID] = true
			filtered = append(filtered, c)
		}
	}

	out := make([]*Node, 0)
	placed := make(map[string]bool, len(filtered))

	emit := func(c models.Comment) {
		root := &Node{Comment: c, ReplyCount: counts[c.ID], Children: []*Node{}}
		placed[c.ID] = true
		stack := []*Node{root}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, k := range idx.Children[n.Comment.ID] {
				if !pass[k.ID] || placed[k.ID] {
					continue
				}
				placed[k.ID] = true
				child := &Node{
					Comment:    k,
					Depth:      n.Depth + 1,
					ReplyCount: counts[k.ID],
					Children:   []*Node{},
				}
				n.Children = append(n.Children, child)
				stack = append(stack, child)
			}
		}
		out = append(out, root)
	}

	// 真正的根评论
	for _, c := range filtered {
		if c.IsRoot() && !placed[c.ID] {
			emit(c)
		}
	}
	// 父评论未通过过滤或已被删除：提升为伪根
	for _, c := range filtered {
		if !c.IsRoot() && !pass[c.Parent()] && !placed[c.ID] {
			emit(c)
		}
	}
	// 环形父链中的评论不会被上面两步覆盖
	for _, c := range filtered {
		if !placed[c.ID] {
			emit(c)
		}
	}
	return out
}

// Walk visits every node depth-first in render order.
func Walk(nodes []*Node, fn func(*Node)) {
	stack := make([]*Node, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, nodes[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}
