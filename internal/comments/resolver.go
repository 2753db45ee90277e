package comments

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"kitab/internal/models"
)

// resolveReplies materializes the replies of parentID at the given depth and everything
// below it, stopping hard at MaxDepth. The depth bound also breaks any parent_id cycle.
func (s *Service) resolveReplies(ctx context.Context, parentID, viewerID string, depth int) []models.AnnotatedComment {
	if depth >= MaxDepth {
		return []models.AnnotatedComment{}
	}

	rows, err := s.comments.FetchChildren(ctx, parentID)
	if err != nil {
		s.logger.Warn("Failed to fetch replies",
			zap.String("parentID", parentID),
			zap.Int("depth", depth),
			zap.Error(err))
		return []models.AnnotatedComment{}
	}

	rows = liveChildren(rows, parentID)
	sortChronological(rows)

	return s.assemble(ctx, rows, viewerID, depth+1)
}

// liveChildren drops rows the store should not have returned.
func liveChildren(rows []models.Comment, parentID string) []models.Comment {
	live := make([]models.Comment, 0, len(rows))
	for _, r := range rows {
		if r.IsDeleted || r.ParentID == nil || *r.ParentID != parentID || r.ID == parentID {
			continue
		}
		live = append(live, r)
	}
	return live
}

// sortChronological orders replies oldest first whatever order the store used.
func sortChronological(rows []models.Comment) {
	sort.SliceStable(rows, func(a, b int) bool {
		if !rows[a].CreatedAt.Equal(rows[b].CreatedAt) {
			return rows[a].CreatedAt.Before(rows[b].CreatedAt)
		}
		return rows[a].ID < rows[b].ID
	})
}
