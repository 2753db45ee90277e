package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"kitab/internal/comments"
)

// Bus fans invalidations out to every instance over Redis pub/sub.
// Published messages carry the sender's origin id so an instance skips its own.
type Bus struct {
	client  rueidis.Client
	channel string
	origin  string
	local   comments.Invalidator
	logger  *zap.Logger
}

var _ comments.Invalidator = (*Bus)(nil)

func NewBus(client rueidis.Client, channel string, local comments.Invalidator, logger *zap.Logger) *Bus {
	return &Bus{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		local:   local,
		logger:  logger.Named("cache_bus"),
	}
}

// NewClient opens the rueidis client used by the bus.
func NewClient(addr, username, password string) (rueidis.Client, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		Username:     username,
		Password:     password,
		ClientName:   "kitab",
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client: %w", err)
	}
	return client, nil
}

// InvalidatePost tells the other instances to drop the post's pages.
func (b *Bus) InvalidatePost(ctx context.Context, postID string) error {
	cmd := b.client.B().Publish().Channel(b.channel).Message(b.origin + "|" + postID).Build()
	if err := b.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}
	return nil
}

// Listen applies invalidations published by other instances until ctx is done.
func (b *Bus) Listen(ctx context.Context) error {
	b.logger.Info("Listening for cache invalidations", zap.String("channel", b.channel))

	err := b.client.Receive(ctx, b.client.B().Subscribe().Channel(b.channel).Build(), func(msg rueidis.PubSubMessage) {
		b.handle(ctx, msg.Message)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("cache bus subscription ended: %w", err)
	}
	return nil
}

func (b *Bus) handle(ctx context.Context, payload string) {
	origin, postID, ok := strings.Cut(payload, "|")
	if !ok || postID == "" {
		b.logger.Warn("Dropping malformed invalidation", zap.String("payload", payload))
		return
	}
	if origin == b.origin {
		return
	}
	if err := b.local.InvalidatePost(ctx, postID); err != nil {
		b.logger.Warn("Failed to apply remote invalidation",
			zap.String("postID", postID),
			zap.Error(err))
	}
}
