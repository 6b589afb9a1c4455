package service

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// coalescer collapses concurrent fetches for the same key into one upstream
// call. The call runs detached from any single caller's cancellation and is
// bounded by timeout; each caller stops waiting when its own ctx ends.
type coalescer[T any] struct {
	group   singleflight.Group
	timeout time.Duration
}

func newCoalescer[T any](timeout time.Duration) *coalescer[T] {
	return &coalescer[T]{timeout: timeout}
}

// Do returns fn's result for key. shared reports whether the result was
// delivered to more than one caller. A nil coalescer calls fn directly.
func (c *coalescer[T]) Do(ctx context.Context, key string, fn func(context.Context) (T, error)) (v T, shared bool, err error) {
	if c == nil {
		v, err = fn(ctx)
		return v, false, err
	}

	ch := c.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return fn(callCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return v, res.Shared, res.Err
		}
		return res.Val.(T), res.Shared, nil
	case <-ctx.Done():
		return v, false, ctx.Err()
	}
}
