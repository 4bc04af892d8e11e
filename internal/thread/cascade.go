package thread

import (
	"context"
	"errors"
	"fmt"

	"digitalaxis/internal/models"
)

// Deleter 删除单条评论记录。记录不存在时应返回 models.ErrCommentNotFound
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

// CascadeResult 级联删除的执行结果
type CascadeResult struct {
	Deleted []string // 本次实际删除的记录
	Missing []string // 已不存在（并发删除或上次中断），视为已完成
}

// Total 已处理（删除或已不存在）的记录数
func (r CascadeResult) Total() int {
	return len(r.Deleted) + len(r.Missing)
}

// CascadeDelete removes id and every transitive reply found in comments,
// children strictly before their parent. Deletes run one at a time. A
// not-found error is treated as already done; any other error stops the
// cascade and is returned with the partial result. There is no rollback.
func CascadeDelete(ctx context.Context, id string, comments []models.Comment, d Deleter) (CascadeResult, error) {
	var res CascadeResult
	for _, target := range Build(comments).DeletionOrder(id) {
		err := d.Delete(ctx, target)
		switch {
		case err == nil:
			res.Deleted = append(res.Deleted, target)
		case errors.Is(err, models.ErrCommentNotFound):
			res.Missing = append(res.Missing, target)
		default:
			return res, fmt.Errorf("delete comment %s: %w", target, err)
		}
	}
	return res, nil
}
