// Package store implements the comment collaborators on top of gorm and Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"kitab/internal/comments"
	"kitab/internal/models"
)

var _ comments.CommentStore = (*CommentStore)(nil)

type CommentStore struct {
	db *gorm.DB
}

func NewCommentStore(db *gorm.DB) *CommentStore {
	return &CommentStore{db: db}
}

func orderFor(sort comments.Sort) string {
	if sort == comments.SortOldest {
		return "created_at ASC, id ASC"
	}
	return "created_at DESC, id DESC"
}

func (s *CommentStore) FetchTopLevel(ctx context.Context, postID string, sort comments.Sort, offset, limit int) ([]models.Comment, int64, error) {
	if !validID(postID) {
		return []models.Comment{}, 0, nil
	}

	topLevel := func(db *gorm.DB) *gorm.DB {
		return db.Where("post_id = ? AND parent_id IS NULL AND is_deleted = ?", postID, false)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Comment{}).Scopes(topLevel).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count top-level comments: %w", err)
	}

	var rows []models.Comment
	err := s.db.WithContext(ctx).
		Scopes(topLevel).
		Order(orderFor(sort)).
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("fetch top-level comments: %w", err)
	}

	return rows, total, nil
}

func (s *CommentStore) FetchChildren(ctx context.Context, parentID string) ([]models.Comment, error) {
	if !validID(parentID) {
		return []models.Comment{}, nil
	}

	var rows []models.Comment
	err := s.db.WithContext(ctx).
		Where("parent_id = ? AND is_deleted = ?", parentID, false).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch replies: %w", err)
	}
	return rows, nil
}

func (s *CommentStore) Get(ctx context.Context, id string) (*models.Comment, error) {
	if !validID(id) {
		return nil, comments.ErrNotFound
	}

	var comment models.Comment
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, comments.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &comment, nil
}

// Insert reports ErrNotFound for a post id that cannot exist.
func (s *CommentStore) Insert(ctx context.Context, comment *models.Comment) error {
	if !validID(comment.PostID) {
		return comments.ErrNotFound
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *CommentStore) UpdateContent(ctx context.Context, id, userID string, content string, contentHTML *string, editedAt time.Time) (*models.Comment, error) {
	return s.update(ctx, id,
		s.db.WithContext(ctx).Model(&models.Comment{}).
			Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false),
		map[string]any{
			"content":      content,
			"content_html": contentHTML,
			"is_edited":    true,
			"edited_at":    editedAt,
		})
}

func (s *CommentStore) SoftDelete(ctx context.Context, id, userID string) (*models.Comment, error) {
	return s.update(ctx, id,
		s.db.WithContext(ctx).Model(&models.Comment{}).
			Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false),
		map[string]any{
			"is_deleted":   true,
			"content":      models.DeletedContent,
			"content_html": models.DeletedContentHTML,
		})
}

func (s *CommentStore) SetPinned(ctx context.Context, id string, pinned bool) (*models.Comment, error) {
	return s.update(ctx, id,
		s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id),
		map[string]any{"is_pinned": pinned})
}

// update applies values to the rows matched by query and reloads the comment.
// No matching row means the caller may not touch it.
func (s *CommentStore) update(ctx context.Context, id string, query *gorm.DB, values map[string]any) (*models.Comment, error) {
	if !validID(id) {
		return nil, comments.ErrNotFound
	}
	res := query.Updates(values)
	if res.Error != nil {
		return nil, fmt.Errorf("update comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, comments.ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *CommentStore) Search(ctx context.Context, q comments.ModerationQuery) ([]models.Comment, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		switch q.Status {
		case comments.StatusActive:
			db = db.Where("is_deleted = ?", false)
		case comments.StatusDeleted:
			db = db.Where("is_deleted = ?", true)
		case comments.StatusPinned:
			db = db.Where("is_pinned = ?", true)
		}
		if q.Search != "" {
			db = db.Where("content ILIKE ?", "%"+q.Search+"%")
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Comment{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	var rows []models.Comment
	err := s.db.WithContext(ctx).
		Preload("User").
		Scopes(filter).
		Order(orderFor(q.Sort)).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("search comments: %w", err)
	}

	return rows, total, nil
}
