package comments

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"kitab/internal/models"
)

// ReactionState is the viewer's reaction on a comment after a toggle.
type ReactionState struct {
	Emoji  string `json:"emoji,omitempty"`
	Active bool   `json:"active"`
}

// ToggleReaction keeps at most one reaction per user per comment:
// no reaction inserts, the same emoji removes, a different emoji replaces in place.
// Duplicate rows left by older data are collapsed onto the oldest one.
func (s *Service) ToggleReaction(ctx context.Context, viewer Viewer, commentID, emoji string) (ReactionState, error) {
	if !viewer.CanWrite() {
		return ReactionState{}, newError(ErrUnauthorized, "You must be logged in to react", nil)
	}

	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return ReactionState{}, newError(ErrInvalid, "Emoji is required", nil)
	}
	if utf8.RuneCountInString(emoji) > MaxEmojiLen {
		return ReactionState{}, newError(ErrInvalid, "Emoji is too long", nil)
	}

	comment, err := s.liveComment(ctx, commentID)
	if err != nil {
		return ReactionState{}, err
	}

	rows, err := s.reactions.FetchForUser(ctx, commentID, viewer.UserID)
	if err != nil {
		return ReactionState{}, s.storageError("Failed to toggle reaction", err)
	}

	// The oldest row decides the transition; any other row for the pair is dropped.
	var existing *models.Reaction
	if len(rows) > 0 {
		existing = &rows[0]
		for _, dup := range rows[1:] {
			if err := s.reactions.Delete(ctx, dup.ID); err != nil {
				return ReactionState{}, s.storageError("Failed to toggle reaction", err)
			}
		}
	}

	var state ReactionState
	switch {
	case existing == nil:
		err = s.reactions.Insert(ctx, commentID, viewer.UserID, emoji)
		state = ReactionState{Emoji: emoji, Active: true}
	case existing.Emoji == emoji:
		err = s.reactions.Delete(ctx, existing.ID)
		state = ReactionState{}
	default:
		err = s.reactions.UpdateEmoji(ctx, existing.ID, emoji)
		state = ReactionState{Emoji: emoji, Active: true}
	}
	if err != nil {
		return ReactionState{}, s.storageError("Failed to toggle reaction", err)
	}

	s.invalidate(ctx, comment.PostID)
	return state, nil
}

// liveComment loads a mutation target. Missing and deleted comments look the same.
func (s *Service) liveComment(ctx context.Context, id string) (*models.Comment, error) {
	comment, err := s.comments.Get(ctx, id)
	if errors.Is(err, ErrNotFound) || (err == nil && comment.IsDeleted) {
		return nil, newError(ErrForbidden, "Comment not found or unauthorized", ErrNotFound)
	}
	if err != nil {
		return nil, s.storageError("Failed to load comment", err)
	}
	return comment, nil
}

func (s *Service) storageError(message string, err error) *Error {
	s.logger.Error(message, zap.Error(err))
	return newError(ErrStorage, message, err)
}
