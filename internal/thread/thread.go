// Package thread turns the flat comment records of one or more posts into
// reply trees and walks them for counting, cascade deletes and filtered
// moderation views.
//
// All traversals are iterative and keep a visited set, so a malformed
// parent chain (a cycle) terminates instead of recursing forever.
package thread

import (
	"digitalaxis/internal/models"
)

// Index 一次遍历得到的线程结构：根评论 + 父 ID -> 直接子评论
type Index struct {
	Roots    []models.Comment
	Children map[string][]models.Comment
}

// Build partitions comments into roots and per-parent buckets, keeping input
// order inside every bucket. A reply whose parent is not in the input still
// lands in its parent's bucket.
func Build(comments []models.Comment) *Index {
	idx := &Index{
		Roots:    make([]models.Comment, 0),
		Children: make(map[string][]models.Comment),
	}
	for _, c := range comments {
		if c.IsRoot() {
			idx.Roots = append(idx.Roots, c)
			continue
		}
		pid := c.Parent()
		idx.Children[pid] = append(idx.Children[pid], c)
	}
	return idx
}

// ChildrenOf 返回直接子评论（无子评论时为空）
func (idx *Index) ChildrenOf(id string) []models.Comment {
	return idx.Children[id]
}

// Descendants returns the ids of every transitive reply of id in pre-order.
// id itself is never included.
func (idx *Index) Descendants(id string) []string {
	out := make([]string, 0)
	seen := map[string]bool{id: true}
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		kids := idx.Children[cur]
		// 逆序入栈，保证出栈顺序与输入顺序一致
		for i := len(kids) - 1; i >= 0; i-- {
			k := kids[i]
			if seen[k.ID] {
				continue
			}
			seen[k.ID] = true
			out = append(out, k.ID)
			stack = append(stack, k.ID)
		}
	}
	return out
}

// CountReplies returns the number of transitive replies below id.
func (idx *Index) CountReplies(id string) int {
	return len(idx.Descendants(id))
}

// CountReplies is a convenience wrapper building the index from a flat set.
func CountReplies(id string, comments []models.Comment) int {
	return Build(comments).CountReplies(id)
}

// ReplyCounts returns CountReplies for every comment in one bottom-up pass:
// each subtree size is the sum of 1+size over its children. Comments on a
// cyclic chain, or reached through duplicate records, fall back to
// CountReplies so the result always matches it.
func (idx *Index) ReplyCounts(comments []models.Comment) map[string]int {
	const (
		unseen = iota
		open
		done
	)
	type frame struct {
		id   string
		next int
	}

	state := make(map[string]int, len(comments))
	size := make(map[string]int, len(comments))
	exact := make(map[string]bool, len(comments))
	counted := make(map[string]bool, len(comments))

	for _, c := range comments {
		if state[c.ID] != unseen {
			continue
		}
		state[c.ID] = open
		stack := []frame{{id: c.ID}}
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := idx.Children[top.id]
			if top.next < len(kids) {
				k := kids[top.next].ID
				top.next++
				if state[k] == unseen {
					state[k] = open
					stack = append(stack, frame{id: k})
				}
				continue
			}

			// 子节点全部完成；每个子节点只能计入一个父节点
			n, ok := 0, true
			for _, k := range kids {
				if state[k.ID] != done || !exact[k.ID] || counted[k.ID] {
					ok = false
					break
				}
				counted[k.ID] = true
				n += 1 + size[k.ID]
			}
			state[top.id] = done
			size[top.id] = n
			exact[top.id] = ok
			stack = stack[:len(stack)-1]
		}
	}

	out := make(map[string]int, len(comments))
	for _, c := range comments {
		if _, ok := out[c.ID]; ok {
			continue
		}
		if exact[c.ID] {
			out[c.ID] = size[c.ID]
		} else {
			out[c.ID] = idx.CountReplies(c.ID)
		}
	}
	return out
}

// DeletionOrder returns id and all of its replies in post-order: every
// comment comes after all of its children, siblings keep input order and id
// is always last.
func (idx *Index) DeletionOrder(id string) []string {
	type frame struct {
		id   string
		next int
	}

	order := make([]string, 0)
	seen := map[string]bool{id: true}
	stack := []frame{{id: id}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		kids := idx.Children[top.id]
		if top.next < len(kids) {
			k := kids[top.next]
			top.next++
			if seen[k.ID] {
				continue
			}
			seen[k.ID] = true
			stack = append(stack, frame{id: k.ID})
			continue
		}
		order = append(order, top.id)
		stack = stack[:len(stack)-1]
	}
	return order
}
