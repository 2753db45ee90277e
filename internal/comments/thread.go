package comments

import (
	"context"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"kitab/internal/models"
)

// Sort is the ordering policy of top-level comments.
type Sort string

const (
	SortNewest        Sort = "newest"
	SortOldest        Sort = "oldest"
	SortMostReactions Sort = "most-reactions"
)

// ParseSort maps a query value to a Sort, defaulting to newest.
func ParseSort(s string) Sort {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case SortOldest:
		return SortOldest
	case SortMostReactions:
		return SortMostReactions
	default:
		return SortNewest
	}
}

type PageOptions struct {
	Sort   Sort
	Limit  int
	Offset int
}

// Page is one page of top-level threads. Total counts every top-level, non-deleted
// comment of the post, not just this page.
type Page struct {
	Comments []models.AnnotatedComment `json:"comments"`
	Total    int64                     `json:"total"`
}

// Normalize applies the default and maximum page size and clamps a negative offset.
func (s *Service) Normalize(opts PageOptions) PageOptions {
	opts.Sort = ParseSort(string(opts.Sort))
	if opts.Limit <= 0 {
		opts.Limit = s.cfg.DefaultLimit
	}
	if opts.Limit > s.cfg.MaxLimit {
		opts.Limit = s.cfg.MaxLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return opts
}

// Page assembles the requested page of threads for a post.
//
// Storage failures never escape: a failed top-level fetch yields an empty page, a failed
// reply fetch yields an empty subtree. most-reactions is applied to the fetched page only,
// after pagination with the newest order.
func (s *Service) Page(ctx context.Context, postID string, opts PageOptions, viewerID string) Page {
	opts = s.Normalize(opts)

	fetchSort := opts.Sort
	if fetchSort == SortMostReactions {
		fetchSort = SortNewest
	}

	rows, total, err := s.comments.FetchTopLevel(ctx, postID, fetchSort, opts.Offset, opts.Limit)
	if err != nil {
		s.logger.Error("Failed to fetch comments",
			zap.String("postID", postID),
			zap.Error(err))
		return Page{Comments: []models.AnnotatedComment{}, Total: 0}
	}

	sortTopLevel(rows, fetchSort)
	threads := s.assemble(ctx, rows, viewerID, 1)

	if opts.Sort == SortMostReactions {
		sort.SliceStable(threads, func(a, b int) bool {
			return threads[a].TotalReactions() > threads[b].TotalReactions()
		})
	}

	return Page{Comments: threads, Total: total}
}

// assemble annotates rows that all sit at the same level. childDepth is the depth of
// their replies.
func (s *Service) assemble(ctx context.Context, rows []models.Comment, viewerID string, childDepth int) []models.AnnotatedComment {
	out := make([]models.AnnotatedComment, len(rows))
	if len(rows) == 0 {
		return out
	}

	reactions := s.reactionsFor(ctx, rows)

	p := pool.New().WithMaxGoroutines(s.cfg.Concurrency)
	for i := range rows {
		p.Go(func() {
			replies := s.resolveReplies(ctx, rows[i].ID, viewerID, childDepth)
			out[i] = models.AnnotatedComment{
				Comment:        rows[i],
				ReactionCounts: AggregateReactions(reactions[rows[i].ID], viewerID),
				ReplyCount:     len(replies),
				Replies:        replies,
			}
		})
	}
	p.Wait()

	return out
}

// reactionsFor batch-loads reactions for one level. A failure degrades to no reactions.
func (s *Service) reactionsFor(ctx context.Context, rows []models.Comment) map[string][]models.Reaction {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}

	reactions, err := s.reactions.FetchForComments(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to fetch reactions",
			zap.Int("comments", len(ids)),
			zap.Error(err))
		return map[string][]models.Reaction{}
	}
	return groupByComment(reactions)
}

func sortTopLevel(rows []models.Comment, order Sort) {
	sort.SliceStable(rows, func(a, b int) bool {
		if !rows[a].CreatedAt.Equal(rows[b].CreatedAt) {
			if order == SortOldest {
				return rows[a].CreatedAt.Before(rows[b].CreatedAt)
			}
			return rows[a].CreatedAt.After(rows[b].CreatedAt)
		}
		if order == SortOldest {
			return rows[a].ID < rows[b].ID
		}
		return rows[a].ID > rows[b].ID
	})
}
