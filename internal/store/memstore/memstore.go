// Package memstore keeps comments, reactions and posts in process memory.
// It backs the "memory" storage driver for local runs and the service tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kitab/internal/comments"
	"kitab/internal/models"
)

// DB holds every table. Comments, Reactions and Posts are views implementing the
// collaborator interfaces of the comments service.
type DB struct {
	mu        sync.RWMutex
	comments  map[string]models.Comment
	reactions map[string]models.Reaction
	posts     map[string]models.Post
	users     map[string]models.User
	now       func() time.Time
}

func New() *DB {
	return &DB{
		comments:  make(map[string]models.Comment),
		reactions: make(map[string]models.Reaction),
		posts:     make(map[string]models.Post),
		users:     make(map[string]models.User),
		now:       time.Now,
	}
}

type (
	Comments  struct{ db *DB }
	Reactions struct{ db *DB }
	Posts     struct{ db *DB }
	Users     struct{ db *DB }
)

var (
	_ comments.CommentStore  = (*Comments)(nil)
	_ comments.ReactionStore = (*Reactions)(nil)
	_ comments.PostStore     = (*Posts)(nil)
)

func (d *DB) Comments() *Comments { return &Comments{db: d} }
func (d *DB) Reactions() *Reactions { return &Reactions{db: d} }
func (d *DB) Posts() *Posts { return &Posts{db: d} }
func (d *DB) Users() *Users { return &Users{db: d} }

// AddUser seeds a user row. Emails are stored lower-cased.
func (d *DB) AddUser(u models.User) models.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(u.Email)
	d.users[u.ID] = u
	return u
}

// AddPost seeds a post row.
func (d *DB) AddPost(p models.Post) models.Post {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	d.posts[p.ID] = p
	return p
}

// AddComment seeds a comment row as-is, without any validation.
func (d *DB) AddComment(c models.Comment) models.Comment {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = d.now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	d.comments[c.ID] = c
	return c
}

// AddReaction seeds a reaction row as-is. Duplicates per (comment, user) are allowed here.
func (d *DB) AddReaction(r models.Reaction) models.Reaction {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = d.now()
	}
	d.reactions[r.ID] = r
	return r
}

// ReactionsOf returns every reaction row of a user on a comment.
func (d *DB) ReactionsOf(commentID, userID string) []models.Reaction {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []models.Reaction
	for _, r := range d.reactions {
		if r.CommentID == commentID && r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

func (s *Comments) FetchTopLevel(_ context.Context, postID string, order comments.Sort, offset, limit int) ([]models.Comment, int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var rows []models.Comment
	for _, c := range s.db.comments {
		if c.PostID == postID && c.IsTopLevel() && !c.IsDeleted {
			rows = append(rows, c)
		}
	}
	sortByCreated(rows, order == comments.SortOldest)

	return paginate(rows, offset, limit), int64(len(rows)), nil
}

func (s *Comments) FetchChildren(_ context.Context, parentID string) ([]models.Comment, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows := []models.Comment{}
	for _, c := range s.db.comments {
		if c.ParentID != nil && *c.ParentID == parentID && !c.IsDeleted {
			rows = append(rows, c)
		}
	}
	sortByCreated(rows, true)
	return rows, nil
}

func (s *Comments) Get(_ context.Context, id string) (*models.Comment, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	c, ok := s.db.comments[id]
	if !ok {
		return nil, comments.ErrNotFound
	}
	return &c, nil
}

func (s *Comments) Insert(_ context.Context, c *models.Comment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := s.db.now()
	c.CreatedAt, c.UpdatedAt = now, now
	s.db.comments[c.ID] = *c
	return nil
}

func (s *Comments) UpdateContent(_ context.Context, id, userID string, content string, contentHTML *string, editedAt time.Time) (*models.Comment, error) {
	return s.mutate(id, func(c *models.Comment) bool {
		if c.IsDeleted || !ownedBy(c, userID) {
			return false
		}
		c.Content = content
		c.ContentHTML = contentHTML
		c.IsEdited = true
		c.EditedAt = &editedAt
		return true
	})
}

func (s *Comments) SoftDelete(_ context.Context, id, userID string) (*models.Comment, error) {
	return s.mutate(id, func(c *models.Comment) bool {
		if c.IsDeleted || !ownedBy(c, userID) {
			return false
		}
		html := models.DeletedContentHTML
		c.IsDeleted = true
		c.Content = models.DeletedContent
		c.ContentHTML = &html
		return true
	})
}

func (s *Comments) SetPinned(_ context.Context, id string, pinned bool) (*models.Comment, error) {
	return s.mutate(id, func(c *models.Comment) bool {
		c.IsPinned = pinned
		return true
	})
}

func (s *Comments) mutate(id string, apply func(c *models.Comment) bool) (*models.Comment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	c, ok := s.db.comments[id]
	if !ok || !apply(&c) {
		return nil, comments.ErrNotFound
	}
	c.UpdatedAt = s.db.now()
	s.db.comments[id] = c
	return &c, nil
}

func (s *Comments) Search(_ context.Context, q comments.ModerationQuery) ([]models.Comment, int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	needle := strings.ToLower(q.Search)
	var rows []models.Comment
	for _, c := range s.db.comments {
		switch q.Status {
		case comments.StatusActive:
			if c.IsDeleted {
				continue
			}
		case comments.StatusDeleted:
			if !c.IsDeleted {
				continue
			}
		case comments.StatusPinned:
			if !c.IsPinned {
				continue
			}
		}
		if needle != "" && !strings.Contains(strings.ToLower(c.Content), needle) {
			continue
		}
		if c.UserID != nil {
			if u, ok := s.db.users[*c.UserID]; ok {
				c.User = &u
			}
		}
		rows = append(rows, c)
	}
	sortByCreated(rows, q.Sort == comments.SortOldest)

	return paginate(rows, q.Offset, q.Limit), int64(len(rows)), nil
}

func (s *Reactions) FetchForComments(_ context.Context, commentIDs []string) ([]models.Reaction, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	wanted := make(map[string]bool, len(commentIDs))
	for _, id := range commentIDs {
		wanted[id] = true
	}

	var rows []models.Reaction
	for _, r := range s.db.reactions {
		if wanted[r.CommentID] {
			rows = append(rows, r)
		}
	}
	sortReactions(rows)
	return rows, nil
}

func (s *Reactions) FetchForUser(_ context.Context, commentID, userID string) ([]models.Reaction, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	rows := []models.Reaction{}
	for _, r := range s.db.reactions {
		if r.CommentID == commentID && r.UserID == userID {
			rows = append(rows, r)
		}
	}
	sortReactions(rows)
	return rows, nil
}

// Insert behaves like an upsert on (comment_id, user_id), the same as the unique index.
func (s *Reactions) Insert(_ context.Context, commentID, userID, emoji string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for id, r := range s.db.reactions {
		if r.CommentID == commentID && r.UserID == userID {
			r.Emoji = emoji
			s.db.reactions[id] = r
			return nil
		}
	}
	id := uuid.NewString()
	s.db.reactions[id] = models.Reaction{
		ID:        id,
		CommentID: commentID,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: s.db.now(),
	}
	return nil
}

func (s *Reactions) UpdateEmoji(_ context.Context, reactionID, emoji string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	r, ok := s.db.reactions[reactionID]
	if !ok {
		return comments.ErrNotFound
	}
	r.Emoji = emoji
	s.db.reactions[reactionID] = r
	return nil
}

func (s *Reactions) Delete(_ context.Context, reactionID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	delete(s.db.reactions, reactionID)
	return nil
}

func (s *Posts) AuthorOf(_ context.Context, postID string) (string, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	p, ok := s.db.posts[postID]
	if !ok || p.AuthorID == nil {
		return "", comments.ErrNotFound
	}
	return *p.AuthorID, nil
}

func (s *Users) FindUser(_ context.Context, id string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	u, ok := s.db.users[id]
	if !ok {
		return nil, comments.ErrNotFound
	}
	return &u, nil
}

func (s *Users) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, comments.ErrNotFound
}

func sortReactions(rows []models.Reaction) {
	sort.Slice(rows, func(a, b int) bool {
		if !rows[a].CreatedAt.Equal(rows[b].CreatedAt) {
			return rows[a].CreatedAt.Before(rows[b].CreatedAt)
		}
		return rows[a].ID < rows[b].ID
	})
}

func ownedBy(c *models.Comment, userID string) bool {
	return c.UserID != nil && *c.UserID == userID
}

func sortByCreated(rows []models.Comment, ascending bool) {
	sort.Slice(rows, func(a, b int) bool {
		if !rows[a].CreatedAt.Equal(rows[b].CreatedAt) {
			if ascending {
				return rows[a].CreatedAt.Before(rows[b].CreatedAt)
			}
			return rows[a].CreatedAt.After(rows[b].CreatedAt)
		}
		if ascending {
			return rows[a].ID < rows[b].ID
		}
		return rows[a].ID > rows[b].ID
	})
}

func paginate(rows []models.Comment, offset, limit int) []models.Comment {
	if offset >= len(rows) {
		return []models.Comment{}
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return rows[offset:end]
}
