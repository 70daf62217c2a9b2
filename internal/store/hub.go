// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"log/slog"
	"sync"
)

// SnapshotFunc receives the full current state of a collection.
type SnapshotFunc func(docs []Document)

// Unsubscribe releases a subscription. It blocks until any in-flight
// delivery has finished; no snapshot is delivered after it returns.
type Unsubscribe func()

// subscription is one live change-feed listener. Deliveries run on a
// dedicated goroutine; the trigger channel has capacity one so bursts of
// writes coalesce into a single refresh.
type subscription struct {
	collection string
	order      OrderSpec
	fn         SnapshotFunc
	trigger    chan struct{}
	done       chan struct{}
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

type hub struct {
	mu   sync.Mutex
	subs map[*subscription]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[*subscription]struct{})}
}

// Subscribe opens a change-feed subscription on a collection. The callback
// receives the full snapshot immediately and again after every committed
// change, always in the given order. Callbacks for one subscription never
// run concurrently with each other.
func (s *Store) Subscribe(collection string, order OrderSpec, fn SnapshotFunc) Unsubscribe {
	sub := &subscription{
		collection: collection,
		order:      order,
		fn:         fn,
		trigger:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}

	s.hub.mu.Lock()
	s.hub.subs[sub] = struct{}{}
	s.hub.mu.Unlock()

	sub.wg.Add(1)
	go s.deliverLoop(sub)

	// Initial snapshot.
	sub.trigger <- struct{}{}

	return func() {
		sub.closeOnce.Do(func() { close(sub.done) })
		sub.wg.Wait()

		s.hub.mu.Lock()
		delete(s.hub.subs, sub)
		s.hub.mu.Unlock()
	}
}

// deliverLoop serves one subscription until it is released. A failed
// refresh is logged and skipped; the subscriber keeps its last snapshot.
func (s *Store) deliverLoop(sub *subscription) {
	defer sub.wg.Done()

	for {
		select {
		case <-sub.done:
			return
		case <-sub.trigger:
			docs, err := s.List(context.Background(), sub.collection, sub.order)
			if err != nil {
				slog.Error("change feed refresh failed",
					"collection", sub.collection, "error", err)
				continue
			}

			// Release may have raced the refresh; never deliver after it.
			select {
			case <-sub.done:
				return
			default:
			}
			sub.fn(docs)
		}
	}
}

// notify wakes every subscriber of a collection.
func (h *hub) notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		if sub.collection != collection {
			continue
		}
		select {
		case sub.trigger <- struct{}{}:
		default: // refresh already pending
		}
	}
}
