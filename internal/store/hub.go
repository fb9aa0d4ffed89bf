package store

import (
	"context"
	"sync"

	"notary/pkg/services"
)

// hub fans a collection snapshot out to in-process subscribers.
type hub[T any] struct {
	mu   sync.Mutex
	subs map[int]func([]T)
	next int
}

func newHub[T any]() *hub[T] {
	return &hub[T]{subs: make(map[int]func([]T))}
}

// subscribe registers fn and returns a cancel func that is also triggered
// when ctx is done.
func (h *hub[T]) subscribe(ctx context.Context, fn func([]T)) services.CancelFunc {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	h.mu.Unlock()

	remove := func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
	stop := context.AfterFunc(ctx, remove)

	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			remove()
		})
	}
}

// publish calls every subscriber with items. Subscribers run outside the
// lock and must not retain the slice across calls without copying.
func (h *hub[T]) publish(items []T) {
	h.mu.Lock()
	fns := make([]func([]T), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(items)
	}
}

func (h *hub[T]) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
