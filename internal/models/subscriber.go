package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscriber 邮件订阅者
type Subscriber struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:254;not null" json:"email"`
	SubscribedAt time.Time `gorm:"index" json:"subscribedAt"`
	Source       string    `gorm:"size:50;not null" json:"source"`
	PostSlug     string    `gorm:"size:200" json:"postSlug,omitempty"`
	Verified     bool      `gorm:"not null" json:"verified"`
	Unsubscribed bool      `gorm:"not null" json:"unsubscribed"`
}

func (s *Subscriber) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
