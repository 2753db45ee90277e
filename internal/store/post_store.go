package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"kitab/internal/comments"
	"kitab/internal/models"
)

var _ comments.PostStore = (*PostStore)(nil)

type PostStore struct {
	db *gorm.DB
}

func NewPostStore(db *gorm.DB) *PostStore {
	return &PostStore{db: db}
}

func (s *PostStore) AuthorOf(ctx context.Context, postID string) (string, error) {
	if !validID(postID) {
		return "", comments.ErrNotFound
	}

	var post models.Post
	err := s.db.WithContext(ctx).Select("id", "author_id").Where("id = ?", postID).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", comments.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get post author: %w", err)
	}
	if post.AuthorID == nil {
		return "", comments.ErrNotFound
	}
	return *post.AuthorID, nil
}
