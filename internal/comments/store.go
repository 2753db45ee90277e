package comments

import (
	"context"
	"time"

	"kitab/internal/models"
)

// CommentStore is the persistence collaborator for comment rows.
// Fetch methods exclude soft-deleted rows.
type CommentStore interface {
	// FetchTopLevel returns one page of top-level comments and the total before pagination.
	FetchTopLevel(ctx context.Context, postID string, sort Sort, offset, limit int) ([]models.Comment, int64, error)
	// FetchChildren returns the direct replies of parentID, oldest first.
	// The parent's own deleted flag does not matter.
	FetchChildren(ctx context.Context, parentID string) ([]models.Comment, error)
	Get(ctx context.Context, id string) (*models.Comment, error)
	// Insert returns ErrNotFound when the post cannot exist.
	Insert(ctx context.Context, comment *models.Comment) error
	UpdateContent(ctx context.Context, id, userID string, content string, contentHTML *string, editedAt time.Time) (*models.Comment, error)
	SoftDelete(ctx context.Context, id, userID string) (*models.Comment, error)
	SetPinned(ctx context.Context, id string, pinned bool) (*models.Comment, error)
	Search(ctx context.Context, q ModerationQuery) ([]models.Comment, int64, error)
}

// ReactionStore is the persistence collaborator for reaction rows. Insert must be safe
// against a concurrent insert for the same (comment, user) pair.
type ReactionStore interface {
	FetchForComments(ctx context.Context, commentIDs []string) ([]models.Reaction, error)
	// FetchForUser returns every reaction row of the user on the comment, oldest first.
	// More than one row only exists in data written before the unique index.
	FetchForUser(ctx context.Context, commentID, userID string) ([]models.Reaction, error)
	Insert(ctx context.Context, commentID, userID, emoji string) error
	UpdateEmoji(ctx context.Context, reactionID, emoji string) error
	Delete(ctx context.Context, reactionID string) error
}

// PostStore resolves post ownership for the pin policy.
type PostStore interface {
	AuthorOf(ctx context.Context, postID string) (string, error)
}

// Invalidator drops any cached rendering of a post's comment section.
type Invalidator interface {
	InvalidatePost(ctx context.Context, postID string) error
}

// InvalidatorFunc adapts a function to Invalidator.
type InvalidatorFunc func(ctx context.Context, postID string) error

func (f InvalidatorFunc) InvalidatePost(ctx context.Context, postID string) error {
	return f(ctx, postID)
}
