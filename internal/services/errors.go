package services

import (
	"errors"

	"digitalaxis/internal/models"
)

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrValidation           = errors.New("validation failed")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrParentNotFound       = errors.New("parent comment not found")
	ErrParentMismatch       = errors.New("parent comment belongs to another post")
	ErrAlreadySubscribed    = errors.New("email already subscribed")

	// 存储层错误直接透出
	ErrCommentNotFound = models.ErrCommentNotFound
	ErrPostNotFound    = models.ErrPostNotFound
)

// ValidationError 字段校验失败，Message 可直接展示给用户
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
