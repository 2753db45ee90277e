package comments

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	// MaxDepth is the depth ceiling of a thread. Top-level comments sit at depth 0,
	// so only depths 0, 1 and 2 are ever materialized.
	MaxDepth = 3

	DefaultLimit = 20
	MaxEmojiLen  = 32
)

// Config tunes the service. Zero values fall back to the package defaults.
type Config struct {
	DefaultLimit int
	MaxLimit     int
	// Concurrency bounds the goroutines used per fan-out (one page or one reply level).
	Concurrency int
	// RestrictPin limits pin toggling to the post author and admins.
	RestrictPin bool
}

// Service builds annotated comment threads and applies comment and reaction mutations.
type Service struct {
	comments    CommentStore
	reactions   ReactionStore
	posts       PostStore
	invalidator Invalidator
	cfg         Config
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(comments CommentStore, reactions ReactionStore, posts PostStore, invalidator Invalidator, cfg Config, logger *zap.Logger) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if invalidator == nil {
		invalidator = InvalidatorFunc(func(context.Context, string) error { return nil })
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		comments:    comments,
		reactions:   reactions,
		posts:       posts,
		invalidator: invalidator,
		cfg:         cfg,
		logger:      logger.Named("comments"),
		now:         time.Now,
	}
}

// invalidate runs the cache post-condition of a successful write. A failure here does not
// undo the write, so it is only logged.
func (s *Service) invalidate(ctx context.Context, postID string) {
	if err := s.invalidator.InvalidatePost(ctx, postID); err != nil {
		s.logger.Warn("Failed to invalidate comment cache",
			zap.String("postID", postID),
			zap.Error(err))
	}
}
