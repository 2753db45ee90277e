package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	Slug        string     `gorm:"not null;uniqueIndex:idx_post_slug_locale" json:"slug"`
	Locale      string     `gorm:"size:8;not null;default:'en';uniqueIndex:idx_post_slug_locale" json:"locale"`
	AuthorID    *string    `gorm:"type:uuid;index" json:"author_id"`
	Author      *User      `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"author,omitempty"`
	Title       string     `gorm:"not null" json:"title"`
	Status      string     `gorm:"size:20;not null;default:'draft'" json:"status"` // draft, published
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
