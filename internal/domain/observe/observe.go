// Package observe provides a small typed publish/subscribe hub used by the
// stores and state machines to notify renderers of changes.
package observe

import (
	"sync"
)

// Hub fans values out to subscribers in subscription order.
// Subscribers are called synchronously on the publishing goroutine and must
// not call back into the publisher while it holds its own lock.
type Hub[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it.
// The returned function is safe to call more than once.
func (h *Hub[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, subscriber[T]{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, s := range h.subs {
				if s.id == id {
					h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers v to every current subscriber.
func (h *Hub[T]) Publish(v T) {
	h.mu.RLock()
	subs := make([]subscriber[T], len(h.subs))
	copy(subs, h.subs)
	h.mu.RUnlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of subscribers.
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
