package models

import "errors"

var (
	ErrCommentNotFound  = errors.New("comment not found")
	ErrSubscriberExists = errors.New("subscriber already exists")
	ErrPostNotFound     = errors.New("post not found")
)
