package comments_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"kitab/internal/comments"
	"kitab/internal/models"
	"kitab/internal/store/memstore"
)

var errBoom = errors.New("boom")

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func ptr[T any](v T) *T { return &v }

// recorder counts invalidations per post.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) InvalidatePost(_ context.Context, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, postID)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// flakyComments fails the selected operations and delegates the rest.
type flakyComments struct {
	comments.CommentStore
	failTopLevel bool
	failChildren map[string]bool
	insertErr    error
}

func (f *flakyComments) FetchTopLevel(ctx context.Context, postID string, sort comments.Sort, offset, limit int) ([]models.Comment, int64, error) {
	if f.failTopLevel {
		return nil, 0, errBoom
	}
	return f.CommentStore.FetchTopLevel(ctx, postID, sort, offset, limit)
}

func (f *flakyComments) FetchChildren(ctx context.Context, parentID string) ([]models.Comment, error) {
	if f.failChildren[parentID] {
		return nil, errBoom
	}
	return f.CommentStore.FetchChildren(ctx, parentID)
}

func (f *flakyComments) Insert(ctx context.Context, c *models.Comment) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.CommentStore.Insert(ctx, c)
}

type flakyReactions struct {
	comments.ReactionStore
	failFetch  bool
	failInsert bool
}

func (f *flakyReactions) FetchForComments(ctx context.Context, ids []string) ([]models.Reaction, error) {
	if f.failFetch {
		return nil, errBoom
	}
	return f.ReactionStore.FetchForComments(ctx, ids)
}

func (f *flakyReactions) Insert(ctx context.Context, commentID, userID, emoji string) error {
	if f.failInsert {
		return errBoom
	}
	return f.ReactionStore.Insert(ctx, commentID, userID, emoji)
}

type fixture struct {
	db          *memstore.DB
	comments    *flakyComments
	reactions   *flakyReactions
	invalidated *recorder
	svc         *comments.Service
	post        models.Post
	author      string
}

func newFixture(t *testing.T, cfg comments.Config) *fixture {
	t.Helper()

	db := memstore.New()
	f := &fixture{
		db:          db,
		comments:    &flakyComments{CommentStore: db.Comments(), failChildren: map[string]bool{}},
		reactions:   &flakyReactions{ReactionStore: db.Reactions()},
		invalidated: &recorder{},
		author:      "author-1",
	}
	f.post = db.AddPost(models.Post{Slug: "hello", Locale: "en", Title: "Hello", AuthorID: ptr(f.author)})
	f.svc = comments.NewService(f.comments, f.reactions, db.Posts(), f.invalidated, cfg, zaptest.NewLogger(t))
	return f
}

func (f *fixture) topLevel(minute int, content string) models.Comment {
	return f.db.AddComment(models.Comment{
		PostID:    f.post.ID,
		UserID:    ptr("u1"),
		Content:   content,
		CreatedAt: at(minute),
	})
}

func (f *fixture) reply(parent models.Comment, minute int, content string) models.Comment {
	return f.db.AddComment(models.Comment{
		PostID:    parent.PostID,
		ParentID:  ptr(parent.ID),
		UserID:    ptr("u1"),
		Content:   content,
		CreatedAt: at(minute),
	})
}

func (f *fixture) react(c models.Comment, userID, emoji string, minute int) {
	f.db.AddReaction(models.Reaction{CommentID: c.ID, UserID: userID, Emoji: emoji, CreatedAt: at(minute)})
}

func writer(id string) comments.Viewer {
	return comments.Viewer{UserID: id, Authenticated: true}
}
