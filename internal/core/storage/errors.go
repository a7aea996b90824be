package storage

import (
	"context"
	"errors"
)

// IsCancelled reports whether err (or the state of ctx) means the caller gave
// up, as opposed to the source failing.
func IsCancelled(ctx context.Context, err error) bool {
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	return errors.Is(err, ErrCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
