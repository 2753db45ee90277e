package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kitab/internal/comments"
)

// Pages caches assembled comment pages for readers without a personal view
// (anonymous visitors and guests). It is an Invalidator for the comments service.
type Pages struct {
	local *Local
	ttl   time.Duration

	mu   sync.Mutex
	gens map[string]uint64 // invalidations per post
}

// Stamp is a post's invalidation count at the moment a page computation started.
type Stamp struct {
	postID string
	gen    uint64
}

var _ comments.Invalidator = (*Pages)(nil)

func NewPages(local *Local, ttl time.Duration) *Pages {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Pages{local: local, ttl: ttl, gens: make(map[string]uint64)}
}

func postPrefix(postID string) string {
	return "comments:" + postID + ":"
}

// Key identifies one page of one post.
func Key(postID string, opts comments.PageOptions) string {
	return fmt.Sprintf("%s%s:%d:%d", postPrefix(postID), opts.Sort, opts.Limit, opts.Offset)
}

func (p *Pages) Get(key string) (comments.Page, bool) {
	v, ok := p.local.Get(key)
	if !ok {
		return comments.Page{}, false
	}
	page, ok := v.(comments.Page)
	return page, ok
}

// Stamp must be taken before the page is read from storage.
func (p *Pages) Stamp(postID string) Stamp {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stamp{postID: postID, gen: p.gens[postID]}
}

// Set stores page unless the post was invalidated after stamp was taken, in which case
// the page may predate the write and is dropped.
func (p *Pages) Set(key string, stamp Stamp, page comments.Page) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gens[stamp.postID] != stamp.gen {
		return false
	}
	p.local.Set(key, page, p.ttl)
	return true
}

// InvalidatePost drops every cached page of the post and fails pending Sets.
func (p *Pages) InvalidatePost(_ context.Context, postID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gens[postID]++
	p.local.DeletePrefix(postPrefix(postID))
	return nil
}
