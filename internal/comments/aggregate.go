package comments

import (
	"sort"

	"kitab/internal/models"
)

// AggregateReactions groups the reactions of a single comment by emoji.
// Groups keep first-seen order and are then stable-sorted by count, highest first.
// An empty viewerID never marks a group as reacted.
func AggregateReactions(reactions []models.Reaction, viewerID string) []models.ReactionCount {
	counts := make([]models.ReactionCount, 0, len(reactions))
	index := make(map[string]int, len(reactions))

	for _, r := range reactions {
		i, ok := index[r.Emoji]
		if !ok {
			i = len(counts)
			index[r.Emoji] = i
			counts = append(counts, models.ReactionCount{Emoji: r.Emoji})
		}
		counts[i].Count++
		if viewerID != "" && r.UserID == viewerID {
			counts[i].HasReacted = true
		}
	}

	sort.SliceStable(counts, func(a, b int) bool {
		return counts[a].Count > counts[b].Count
	})
	return counts
}

// groupByComment splits a batch of reaction rows per comment id.
func groupByComment(reactions []models.Reaction) map[string][]models.Reaction {
	grouped := make(map[string][]models.Reaction)
	for _, r := range reactions {
		grouped[r.CommentID] = append(grouped[r.CommentID], r)
	}
	return grouped
}
