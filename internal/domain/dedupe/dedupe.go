// Package dedupe coalesces repeated rescore requests for the same employee.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// Tracker records keys with work in flight.
type Tracker interface {
	// Claim records key as pending. It returns true if key was already
	// pending, in which case the caller should drop its request.
	Claim(ctx context.Context, key string) bool

	// Release clears key once its work finished or could not be queued.
	Release(ctx context.Context, key string)

	// Pending returns the number of claimed keys.
	Pending() int64
}

type memTracker struct {
	mu      sync.Mutex
	keys    map[string]*list.Element
	order   *list.List // front is the newest claim
	maxSize int
	size    atomic.Int64
}

// NewTracker returns an in-memory Tracker.
func NewTracker(opts ...Option) Tracker {
	t := &memTracker{
		maxSize: 50000,
		keys:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *memTracker) Claim(_ context.Context, key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.keys[key]; ok {
		return true
	}
	if t.maxSize > 0 && len(t.keys) >= t.maxSize {
		t.evictOldest()
	}
	t.keys[key] = t.order.PushFront(key)
	t.size.Add(1)
	return false
}

func (t *memTracker) Release(_ context.Context, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if el, ok := t.keys[key]; ok {
		t.order.Remove(el)
		delete(t.keys, key)
		t.size.Add(-1)
	}
}

// evictOldest must be called with t.mu held.
func (t *memTracker) evictOldest() {
	el := t.order.Back()
	if el == nil {
		return
	}
	t.order.Remove(el)
	delete(t.keys, el.Value.(string))
	t.size.Add(-1)
}

func (t *memTracker) Pending() int64 {
	return t.size.Load()
}
