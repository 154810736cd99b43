package vfs

import "sync"

// EventType is the kind of change a mutation produced.
type EventType uint8

const (
	Created EventType = iota + 1
	Changed
	Deleted
)

func (t EventType) String() string {
	switch t {
	case Created:
		return "created"
	case Changed:
		return "changed"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Event describes one change to the tree.
type Event struct {
	Type EventType
	Path string
}

// watchers fans events out to registered callbacks. Delivery is best effort:
// callbacks run synchronously, after the mutation has been applied.
type watchers struct {
	mu        sync.RWMutex
	next      int
	callbacks map[int]func(Event)
}

func (w *watchers) add(callback func(Event)) (unregister func()) {
	w.mu.Lock()
	if w.callbacks == nil {
		w.callbacks = make(map[int]func(Event))
	}
	id := w.next
	w.next++
	w.callbacks[id] = callback
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.callbacks, id)
	}
}

func (w *watchers) fire(events ...Event) {
	w.mu.RLock()
	callbacks := make([]func(Event), 0, len(w.callbacks))
	for _, cb := range w.callbacks {
		callbacks = append(callbacks, cb)
	}
	w.mu.RUnlock()

	for _, event := range events {
		for _, cb := range callbacks {
			cb(event)
		}
	}
}
