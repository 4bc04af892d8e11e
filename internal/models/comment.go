package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment 评论记录。ParentID 为空表示直接评论文章，否则为任意深度的回复
type Comment struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	PostSlug      string    `gorm:"size:200;not null;index" json:"postSlug"`
	Author        string    `gorm:"size:100;not null" json:"author"`
	Email         string    `gorm:"size:254" json:"email,omitempty"` // 不对访客展示
	Content       string    `gorm:"type:text;not null" json:"content"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
	Approved      bool      `gorm:"not null;index" json:"approved"`
	IsAdmin       bool      `gorm:"not null" json:"isAdmin,omitempty"`
	ParentID      *string   `gorm:"size:36;index" json:"parentId,omitempty"`
	MentionedUser string    `gorm:"size:100" json:"mentionedUser,omitempty"` // 仅用于展示 @name
}

// BeforeCreate 由存储层分配 ID
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IsRoot reports whether the comment is attached directly to the post.
func (c Comment) IsRoot() bool {
	return c.ParentID == nil || *c.ParentID == ""
}

// Parent returns the parent id, or "" for root comments.
func (c Comment) Parent() string {
	if c.ParentID == nil {
		return ""
	}
	return *c.ParentID
}

// Redacted 返回去掉私密字段的副本，用于公开展示
func (c Comment) Redacted() Comment {
	c.Email = ""
	return c
}
