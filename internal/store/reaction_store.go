package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kitab/internal/comments"
	"kitab/internal/models"
)

var _ comments.ReactionStore = (*ReactionStore)(nil)

type ReactionStore struct {
	db *gorm.DB
}

func NewReactionStore(db *gorm.DB) *ReactionStore {
	return &ReactionStore{db: db}
}

// FetchForComments loads the reactions of many comments in one query.
func (s *ReactionStore) FetchForComments(ctx context.Context, commentIDs []string) ([]models.Reaction, error) {
	if len(commentIDs) == 0 {
		return []models.Reaction{}, nil
	}

	var rows []models.Reaction
	err := s.db.WithContext(ctx).
		Where("comment_id IN ?", commentIDs).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch reactions: %w", err)
	}
	return rows, nil
}

func (s *ReactionStore) FetchForUser(ctx context.Context, commentID, userID string) ([]models.Reaction, error) {
	rows := []models.Reaction{}
	if !validID(commentID, userID) {
		return rows, nil
	}
	err := s.db.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch reaction: %w", err)
	}
	return rows, nil
}

// Insert relies on the (comment_id, user_id) unique index: a concurrent insert for the
// same pair turns into an emoji update instead of a second row.
func (s *ReactionStore) Insert(ctx context.Context, commentID, userID, emoji string) error {
	reaction := models.Reaction{
		CommentID: commentID,
		UserID:    userID,
		Emoji:     emoji,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "comment_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"emoji"}),
		}).
		Create(&reaction).Error
	if err != nil {
		return fmt.Errorf("insert reaction: %w", err)
	}
	return nil
}

func (s *ReactionStore) UpdateEmoji(ctx context.Context, reactionID, emoji string) error {
	if !validID(reactionID) {
		return comments.ErrNotFound
	}
	res := s.db.WithContext(ctx).Model(&models.Reaction{}).
		Where("id = ?", reactionID).
		Update("emoji", emoji)
	if res.Error != nil {
		return fmt.Errorf("update reaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return comments.ErrNotFound
	}
	return nil
}

func (s *ReactionStore) Delete(ctx context.Context, reactionID string) error {
	if !validID(reactionID) {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("id = ?", reactionID).Delete(&models.Reaction{}).Error; err != nil {
		return fmt.Errorf("delete reaction: %w", err)
	}
	return nil
}
