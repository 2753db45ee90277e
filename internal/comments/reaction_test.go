package comments_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitab/internal/comments"
	"kitab/internal/models"
)

func TestToggleReaction_Sequence(t *testing.T) {
	f := newFixture(t, comments.Config{})
	c := f.topLevel(1, "c")
	ctx := context.Background()
	u := writer("u1")

	state, err := f.svc.ToggleReaction(ctx, u, c.ID, "👍")
	require.NoError(t, err)
	assert.Equal(t, comments.ReactionState{Emoji: "👍", Active: true}, state)
	rows := f.db.ReactionsOf(c.ID, "u1")
	require.Len(t, rows, 1)
	assert.Equal(t, "👍", rows[0].Emoji)
	firstID := rows[0].ID

	state, err = f.svc.ToggleReaction(ctx, u, c.ID, "❤️")
	require.NoError(t, err)
	assert.Equal(t, comments.ReactionState{Emoji: "❤️", Active: true}, state)
	rows = f.db.ReactionsOf(c.ID, "u1")
	require.Len(t, rows, 1)
	assert.Equal(t, "❤️", rows[0].Emoji)
	assert.Equal(t, firstID, rows[0].ID, "replacement updates the row in place")

	state, err = f.svc.ToggleReaction(ctx, u, c.ID, "❤️")
	require.NoError(t, err)
	assert.False(t, state.Active)
	assert.Empty(t, f.db.ReactionsOf(c.ID, "u1"))

	assert.Equal(t, 3, f.invalidated.count())
	for _, postID := range f.invalidated.calls {
		assert.Equal(t, f.post.ID, postID)
	}
}

func TestToggleReaction_CollapsesDuplicateRows(t *testing.T) {
	tests := []struct {
		name   string
		emoji  string
		want   comments.ReactionState
		remain []string
	}{
		{"newer emoji replaces the oldest row", "❤️", comments.ReactionState{Emoji: "❤️", Active: true}, []string{"❤️"}},
		{"oldest emoji toggles off", "👍", comments.ReactionState{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for trial := 0; trial < 20; trial++ {
				f := newFixture(t, comments.Config{})
				c := f.topLevel(0, "c")
				f.react(c, "u1", "👍", 1)
				f.react(c, "u1", "❤️", 2)
				require.Len(t, f.db.ReactionsOf(c.ID, "u1"), 2)

				state, err := f.svc.ToggleReaction(context.Background(), writer("u1"), c.ID, tt.emoji)

				require.NoError(t, err)
				assert.Equal(t, tt.want, state)
				var emojis []string
				for _, r := range f.db.ReactionsOf(c.ID, "u1") {
					emojis = append(emojis, r.Emoji)
				}
				assert.Equal(t, tt.remain, emojis)
			}
		})
	}
}

func TestToggleReaction_Rejections(t *testing.T) {
	f := newFixture(t, comments.Config{})
	live := f.topLevel(1, "live")
	gone := f.db.AddComment(models.Comment{PostID: f.post.ID, Content: models.DeletedContent, IsDeleted: true, CreatedAt: at(2)})

	tests := []struct {
		name      string
		viewer    comments.Viewer
		commentID string
		emoji     string
		kind      error
	}{
		{"anonymous", comments.Anonymous, live.ID, "👍", comments.ErrUnauthorized},
		{"guest", comments.Viewer{UserID: "u1", Authenticated: true, Guest: true}, live.ID, "👍", comments.ErrUnauthorized},
		{"empty emoji", writer("u1"), live.ID, "  ", comments.ErrInvalid},
		{"emoji too long", writer("u1"), live.ID, strings.Repeat("x", comments.MaxEmojiLen+1), comments.ErrInvalid},
		{"missing comment", writer("u1"), "nope", "👍", comments.ErrForbidden},
		{"deleted comment", writer("u1"), gone.ID, "👍", comments.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ToggleReaction(context.Background(), tt.viewer, tt.commentID, tt.emoji)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	assert.Zero(t, f.invalidated.count())
	assert.Empty(t, f.db.ReactionsOf(live.ID, "u1"))
}

func TestToggleReaction_StorageFailure(t *testing.T) {
	f := newFixture(t, comments.Config{})
	c := f.topLevel(1, "c")
	f.reactions.failInsert = true

	_, err := f.svc.ToggleReaction(context.Background(), writer("u1"), c.ID, "👍")

	assert.ErrorIs(t, err, comments.ErrStorage)
	assert.Equal(t, "Failed to toggle reaction", comments.Message(err, ""))
	assert.Zero(t, f.invalidated.count())
}

func TestToggleReaction_ConcurrentUsers(t *testing.T) {
	f := newFixture(t, comments.Config{})
	c := f.topLevel(1, "c")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.ToggleReaction(context.Background(), writer(fmt.Sprintf("u%d", i)), c.ID, "👍")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	page := f.svc.Page(context.Background(), f.post.ID, comments.PageOptions{}, "u7")
	require.Len(t, page.Comments, 1)
	assert.Equal(t, []models.ReactionCount{{Emoji: "👍", Count: 20, HasReacted: true}}, page.Comments[0].ReactionCounts)
}
