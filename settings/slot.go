// Package settings holds the single global setting a preview overrides.
package settings

import (
	"context"
	"sync"

	"github.com/samber/mo"
)

// Slot reads and writes one named setting. Get returns mo.None when the
// setting is unset, which is different from set to the empty string.
type Slot interface {
	Name() string
	Get(ctx context.Context) (mo.Option[string], error)
	Set(ctx context.Context, value string) error
	Unset(ctx context.Context) error
}

// Restore writes prior back to slot, unsetting it when prior is empty.
func Restore(ctx context.Context, slot Slot, prior mo.Option[string]) error {
	if value, ok := prior.Get(); ok {
		return slot.Set(ctx, value)
	}
	return slot.Unset(ctx)
}

// MemorySlot keeps the setting in memory and records every write.
type MemorySlot struct {
	name string

	mu     sync.Mutex
	value  mo.Option[string]
	writes []mo.Option[string]
}

// NewMemorySlot returns a slot holding initial.
func NewMemorySlot(name string, initial mo.Option[string]) *MemorySlot {
	return &MemorySlot{name: name, value: initial}
}

func (m *MemorySlot) Name() string {
	return m.name
}

func (m *MemorySlot) Get(ctx context.Context) (mo.Option[string], error) {
	if err := ctx.Err(); err != nil {
		return mo.None[string](), err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, nil
}

func (m *MemorySlot) Set(ctx context.Context, value string) error {
	return m.write(ctx, mo.Some(value))
}

func (m *MemorySlot) Unset(ctx context.Context) error {
	return m.write(ctx, mo.None[string]())
}

func (m *MemorySlot) write(ctx context.Context, value mo.Option[string]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = value
	m.writes = append(m.writes, value)
	return nil
}

// Writes returns every value written so far, in order.
func (m *MemorySlot) Writes() []mo.Option[string] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mo.Option[string](nil), m.writes...)
}
