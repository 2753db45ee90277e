package comments_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kitab/internal/comments"
	"kitab/internal/models"
)

func TestAggregateReactions(t *testing.T) {
	reactions := []models.Reaction{
		{CommentID: "c1", UserID: "u1", Emoji: "👍"},
		{CommentID: "c1", UserID: "u2", Emoji: "👍"},
		{CommentID: "c1", UserID: "u3", Emoji: "❤️"},
	}

	tests := []struct {
		name   string
		input  []models.Reaction
		viewer string
		want   []models.ReactionCount
	}{
		{
			name:   "viewer reacted",
			input:  reactions,
			viewer: "u2",
			want: []models.ReactionCount{
				{Emoji: "👍", Count: 2, HasReacted: true},
				{Emoji: "❤️", Count: 1, HasReacted: false},
			},
		},
		{
			name:   "anonymous viewer",
			input:  reactions,
			viewer: "",
			want: []models.ReactionCount{
				{Emoji: "👍", Count: 2},
				{Emoji: "❤️", Count: 1},
			},
		},
		{
			name: "ties keep first-seen order",
			input: []models.Reaction{
				{UserID: "u1", Emoji: "🎉"},
				{UserID: "u2", Emoji: "👀"},
				{UserID: "u3", Emoji: "👀"},
				{UserID: "u4", Emoji: "🚀"},
			},
			viewer: "u4",
			want: []models.ReactionCount{
				{Emoji: "👀", Count: 2},
				{Emoji: "🎉", Count: 1},
				{Emoji: "🚀", Count: 1, HasReacted: true},
			},
		},
		{
			name:  "empty",
			input: nil,
			want:  []models.ReactionCount{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := comments.AggregateReactions(tt.input, tt.viewer)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregateReactions_CountsSumToInput(t *testing.T) {
	var input []models.Reaction
	for i, e := range []string{"a", "b", "a", "c", "a", "b"} {
		input = append(input, models.Reaction{UserID: string(rune('p' + i)), Emoji: e})
	}

	got := comments.AggregateReactions(input, "")

	sum := 0
	for i, g := range got {
		sum += g.Count
		if i > 0 {
			assert.GreaterOrEqual(t, got[i-1].Count, g.Count)
		}
	}
	assert.Equal(t, len(input), sum)
	assert.Len(t, got, 3)
}
