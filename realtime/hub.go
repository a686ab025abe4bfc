// Package realtime is the change-notification feed of the record store.
// Writers publish a Change after each accepted write; live views subscribe
// with a Scope and re-read their data whenever a matching change arrives.
package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Feed is the subscribe side of the change feed.
type Feed interface {
	Subscribe(scope Scope, fn func(Change)) *Subscription
}

// Publisher is the write side of the change feed.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// Hub delivers changes to in-process subscribers. Callbacks run on the
// publisher's goroutine and must not block.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]*Subscription)}
}

type Subscription struct {
	id    string
	scope Scope
	fn    func(Change)
	hub   *Hub
	once  sync.Once
}

func (s *Subscription) Scope() Scope {
	return s.scope
}

// Unsubscribe stops delivery. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
	})
}

func (h *Hub) Subscribe(scope Scope, fn func(Change)) *Subscription {
	sub := &Subscription{id: uuid.NewString(), scope: scope, fn: fn, hub: h}
	h.mu.Lock()
	h.subs[sub.id] = sub
	h.mu.Unlock()
	return sub
}

func (h *Hub) Publish(_ context.Context, change Change) error {
	h.mu.RLock()
	matched := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		if sub.scope.Matches(change) {
			matched = append(matched, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range matched {
		sub.fn(change)
	}
	return nil
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
