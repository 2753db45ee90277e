package cache

import (
	"context"
	"errors"

	"kitab/internal/comments"
)

// Chain runs every invalidator in order and joins their errors.
type Chain []comments.Invalidator

func (c Chain) InvalidatePost(ctx context.Context, postID string) error {
	var errs []error
	for _, inv := range c {
		if err := inv.InvalidatePost(ctx, postID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
