package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 软删除后保留行，只替换内容
const (
	DeletedContent     = "[deleted]"
	DeletedContentHTML = "<p>[deleted]</p>"
)

type Comment struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	PostID      string     `gorm:"type:uuid;not null;index:idx_comments_post_parent" json:"post_id"`
	Post        *Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ParentID    *string    `gorm:"type:uuid;index:idx_comments_post_parent;index" json:"parent_id"` // Nullable for top-level comments
	Parent      *Comment   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID      *string    `gorm:"type:uuid;index" json:"user_id"` // Nullable once the author is removed
	User        *User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"` // Exposed through Author only
	Content     string     `gorm:"type:text;not null" json:"content"`
	ContentHTML *string    `gorm:"type:text" json:"content_html"`
	IsPinned    bool       `gorm:"not null;default:false" json:"is_pinned"`
	IsAnswer    bool       `gorm:"not null;default:false" json:"is_answer"`
	IsDeleted   bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	IsEdited    bool       `gorm:"not null;default:false" json:"is_edited"`
	EditedAt    *time.Time `json:"edited_at"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IsTopLevel reports whether the comment hangs directly off its post.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil || *c.ParentID == ""
}

// ReactionCount 单个 emoji 的聚合结果
type ReactionCount struct {
	Emoji      string `json:"emoji"`
	Count      int    `json:"count"`
	HasReacted bool   `json:"hasReacted"`
}

// AnnotatedComment is a comment with its aggregated reactions and materialized replies.
// ReplyCount counts direct children only.
type AnnotatedComment struct {
	Comment
	ReactionCounts []ReactionCount    `json:"reaction_counts"`
	ReplyCount     int                `json:"reply_count"`
	Replies        []AnnotatedComment `json:"replies"`
}

// TotalReactions sums every emoji count on the comment.
func (a *AnnotatedComment) TotalReactions() int {
	total := 0
	for _, r := range a.ReactionCounts {
		total += r.Count
	}
	return total
}
