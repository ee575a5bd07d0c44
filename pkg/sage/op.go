package sage

import (
	"context"
	"errors"
)

// WithSession runs fn with a pooled session handle and routes the handle
// back afterward: corrupted sessions are invalidated, everything else is
// released. Exactly one of the two happens, including when fn panics.
func WithSession(ctx context.Context, pool *Pool, fn func(h *SessionHandle) error) error {
	h, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}

	settled := false
	defer func() {
		if !settled {
			// fn panicked; the handle state is unknown
			pool.Invalidate(h)
		}
	}()

	err = fn(h)
	settled = true
	if errors.Is(err, ErrSessionCorrupted) {
		pool.Invalidate(h)
	} else {
		pool.Release(h)
	}
	return err
}
