package comments

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"kitab/internal/models"
	"kitab/internal/utils"
)

const MaxContentLen = 10000

type CreateInput struct {
	PostID      string
	ParentID    string
	Content     string
	ContentHTML string
}

type UpdateInput struct {
	Content     string
	ContentHTML string
}

func cleanContent(content, contentHTML string) (string, *string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", nil, newError(ErrInvalid, "Comment cannot be empty", nil)
	}
	if utf8.RuneCountInString(content) > MaxContentLen {
		return "", nil, newError(ErrInvalid, "Comment is too long", nil)
	}

	var html *string
	if sanitized := utils.SanitizeHTML(contentHTML); sanitized != "" {
		html = &sanitized
	}
	return content, html, nil
}

// CreateComment adds a top-level comment or a reply. Replies must stay on the parent's
// post and may not go deeper than MaxDepth-1.
func (s *Service) CreateComment(ctx context.Context, viewer Viewer, in CreateInput) (*models.Comment, error) {
	if !viewer.CanWrite() {
		return nil, newError(ErrUnauthorized, "You must be logged in to comment", nil)
	}
	if strings.TrimSpace(in.PostID) == "" {
		return nil, newError(ErrInvalid, "Post is required", nil)
	}

	content, html, err := cleanContent(in.Content, in.ContentHTML)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:      in.PostID,
		UserID:      &viewer.UserID,
		Content:     content,
		ContentHTML: html,
	}

	if parentID := strings.TrimSpace(in.ParentID); parentID != "" {
		if err := s.checkParent(ctx, in.PostID, parentID); err != nil {
			return nil, err
		}
		comment.ParentID = &parentID
	}

	if err := s.comments.Insert(ctx, comment); errors.Is(err, ErrNotFound) {
		return nil, newError(ErrInvalid, "Post not found", err)
	} else if err != nil {
		return nil, s.storageError("Failed to create comment", err)
	}

	s.invalidate(ctx, comment.PostID)
	return comment, nil
}

func (s *Service) checkParent(ctx context.Context, postID, parentID string) error {
	parent, err := s.comments.Get(ctx, parentID)
	if errors.Is(err, ErrNotFound) || (err == nil && (parent.IsDeleted || parent.PostID != postID)) {
		return newError(ErrInvalid, "Parent comment not found", nil)
	}
	if err != nil {
		return s.storageError("Failed to create comment", err)
	}

	depth, err := s.depthOf(ctx, parent)
	if err != nil {
		return s.storageError("Failed to create comment", err)
	}
	if depth+1 >= MaxDepth {
		return newError(ErrInvalid, "Maximum reply depth (3 levels) reached", nil)
	}
	return nil
}

// depthOf walks up the parent chain, giving up once MaxDepth is reached.
func (s *Service) depthOf(ctx context.Context, c *models.Comment) (int, error) {
	depth := 0
	for cur := c; !cur.IsTopLevel() && depth < MaxDepth; depth++ {
		next, err := s.comments.Get(ctx, *cur.ParentID)
		if errors.Is(err, ErrNotFound) {
			return depth + 1, nil
		}
		if err != nil {
			return 0, err
		}
		cur = next
	}
	return depth, nil
}

// UpdateComment rewrites the content of the viewer's own comment and marks it edited.
func (s *Service) UpdateComment(ctx context.Context, viewer Viewer, id string, in UpdateInput) (*models.Comment, error) {
	if !viewer.CanWrite() {
		return nil, newError(ErrUnauthorized, "You must be logged in to edit comments", nil)
	}

	content, html, err := cleanContent(in.Content, in.ContentHTML)
	if err != nil {
		return nil, err
	}

	comment, err := s.comments.UpdateContent(ctx, id, viewer.UserID, content, html, s.now())
	if errors.Is(err, ErrNotFound) {
		return nil, newError(ErrForbidden, "Comment not found or unauthorized", err)
	}
	if err != nil {
		return nil, s.storageError("Failed to update comment", err)
	}

	s.invalidate(ctx, comment.PostID)
	return comment, nil
}

// DeleteComment soft-deletes the viewer's own comment. Its replies keep pointing at it.
func (s *Service) DeleteComment(ctx context.Context, viewer Viewer, id string) error {
	if !viewer.CanWrite() {
		return newError(ErrUnauthorized, "You must be logged in to delete comments", nil)
	}

	comment, err := s.comments.SoftDelete(ctx, id, viewer.UserID)
	if errors.Is(err, ErrNotFound) {
		return newError(ErrForbidden, "Comment not found or unauthorized", err)
	}
	if err != nil {
		return s.storageError("Failed to delete comment", err)
	}

	s.invalidate(ctx, comment.PostID)
	return nil
}

// TogglePin sets the pinned flag. With RestrictPin only the post author or an admin may do it.
func (s *Service) TogglePin(ctx context.Context, viewer Viewer, id string, pinned bool) (*models.Comment, error) {
	if !viewer.CanWrite() {
		return nil, newError(ErrUnauthorized, "You must be logged in", nil)
	}

	if s.cfg.RestrictPin && !viewer.Admin {
		if err := s.checkPostAuthor(ctx, viewer, id); err != nil {
			return nil, err
		}
	}

	comment, err := s.comments.SetPinned(ctx, id, pinned)
	if errors.Is(err, ErrNotFound) {
		return nil, newError(ErrForbidden, "Comment not found or unauthorized", err)
	}
	if err != nil {
		return nil, s.storageError("Failed to toggle pin", err)
	}

	s.invalidate(ctx, comment.PostID)
	return comment, nil
}

func (s *Service) checkPostAuthor(ctx context.Context, viewer Viewer, commentID string) error {
	comment, err := s.liveComment(ctx, commentID)
	if err != nil {
		return err
	}
	if s.posts == nil {
		return newError(ErrForbidden, "Only the post author can pin comments", nil)
	}

	authorID, err := s.posts.AuthorOf(ctx, comment.PostID)
	if errors.Is(err, ErrNotFound) {
		return newError(ErrForbidden, "Only the post author can pin comments", nil)
	}
	if err != nil {
		return s.storageError("Failed to toggle pin", err)
	}
	if authorID != viewer.UserID {
		return newError(ErrForbidden, "Only the post author can pin comments", nil)
	}
	return nil
}
