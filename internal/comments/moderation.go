package comments

import (
	"context"
	"strings"

	"kitab/internal/models"
)

type ModerationStatus string

const (
	StatusAll     ModerationStatus = "all"
	StatusActive  ModerationStatus = "active"
	StatusDeleted ModerationStatus = "deleted"
	StatusPinned  ModerationStatus = "pinned"
)

func ParseStatus(s string) ModerationStatus {
	switch ModerationStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusAll:
		return StatusAll
	case StatusDeleted:
		return StatusDeleted
	case StatusPinned:
		return StatusPinned
	default:
		return StatusActive
	}
}

// ModerationQuery filters the admin comment listing. Sort accepts newest or oldest.
type ModerationQuery struct {
	Status ModerationStatus
	Search string
	Sort   Sort
	Limit  int
	Offset int
}

// Moderate lists comments across all posts for the admin console, with User loaded.
// Guests may browse it read-only. A signed-in non-admin is refused rather than asked to log in.
func (s *Service) Moderate(ctx context.Context, viewer Viewer, q ModerationQuery) ([]models.Comment, int64, error) {
	switch {
	case viewer.Guest, viewer.CanWrite() && viewer.Admin:
	case viewer.CanWrite():
		return nil, 0, newError(ErrForbidden, "Admin access required", nil)
	default:
		return nil, 0, newError(ErrUnauthorized, "Admin access required", nil)
	}

	q.Status = ParseStatus(string(q.Status))
	q.Search = strings.TrimSpace(q.Search)
	if q.Sort != SortOldest {
		q.Sort = SortNewest
	}
	page := s.Normalize(PageOptions{Sort: q.Sort, Limit: q.Limit, Offset: q.Offset})
	q.Limit, q.Offset = page.Limit, page.Offset

	rows, total, err := s.comments.Search(ctx, q)
	if err != nil {
		return nil, 0, s.storageError("Failed to load comments", err)
	}
	if rows == nil {
		rows = []models.Comment{}
	}
	return rows, total, nil
}
