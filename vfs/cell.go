package vfs

import (
	"context"
	"sync"
)

// Loader produces the value of a Cell on first access.
type Loader[T any] func(ctx context.Context) (T, error)

type cellState uint8

const (
	unpopulated cellState = iota
	populating
	populated
)

// call is a fetch in flight. Callers that arrive while it runs wait on done.
// Abandoned is set when the fetch failed only because the context of the
// caller that started it ended.
type call[T any] struct {
	done      chan struct{}
	value     T
	err       error
	abandoned bool
}

// Cell is a populate-once value.
//
// The first Get runs the loader; concurrent Get calls share that single fetch.
// A failed load leaves the cell unpopulated so the next Get tries again. When
// the fetch was cancelled by its initiator, waiters whose own context is still
// live start a fresh one instead of inheriting the cancellation. Once
// populated, the value is kept for the lifetime of the cell unless replaced by Set.
type Cell[T any] struct {
	mu      sync.Mutex
	state   cellState
	value   T
	pending *call[T]
	load    Loader[T]
}

// NewCell returns an unpopulated cell backed by load.
func NewCell[T any](load Loader[T]) *Cell[T] {
	return &Cell[T]{load: load}
}

// Resolved returns a cell that is already populated with value.
func Resolved[T any](value T) *Cell[T] {
	return &Cell[T]{state: populated, value: value}
}

// Get returns the cell value, loading it if necessary.
func (c *Cell[T]) Get(ctx context.Context) (T, error) {
	c.mu.Lock()
	switch c.state {
	case populated:
		value := c.value
		c.mu.Unlock()
		return value, nil
	case populating:
		pending := c.pending
		c.mu.Unlock()

		value, err := wait(ctx, pending)
		if err != nil && ctx.Err() == nil && pending.abandoned {
			return c.Get(ctx)
		}
		return value, err
	}

	pending := &call[T]{done: make(chan struct{})}
	c.state = populating
	c.pending = pending
	load := c.load
	c.mu.Unlock()

	var (
		value T
		err   error
	)
	if load != nil {
		value, err = load(ctx)
	}

	c.mu.Lock()
	if c.pending == pending {
		c.pending = nil
		if err != nil {
			c.state = unpopulated
		} else {
			c.state = populated
			c.value = value
		}
	} else if c.state == populated {
		// Set replaced the value while the load was running.
		value, err = c.value, nil
	}
	c.mu.Unlock()

	pending.value, pending.err = value, err
	pending.abandoned = err != nil && ctx.Err() != nil
	close(pending.done)

	return value, err
}

// Set replaces the cell value outright. A load in flight keeps running but its
// result is discarded.
func (c *Cell[T]) Set(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = populated
	c.value = value
	c.pending = nil
}

// Populated reports whether the value has been realized.
func (c *Cell[T]) Populated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state == populated
}

func wait[T any](ctx context.Context, pending *call[T]) (T, error) {
	select {
	case <-pending.done:
		return pending.value, pending.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
