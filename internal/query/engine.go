// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

// Package query implements the live record query engine: it mirrors a
// remote collection into an in-memory snapshot via the store's change
// feed and derives filtered/sorted/searched views on demand without
// re-fetching. One engine instance serves one record tab; instances are
// independent and share no state.
package query

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/shieldhq/shield-admin/internal/store"
)

// FilterAny is the sentinel that disables a filter control.
const FilterAny = "any"

// TriState is the accepted-terms filter setting.
type TriState int

// Accepted-terms filter values.
const (
	AcceptedAny TriState = iota
	AcceptedYes
	AcceptedNo
)

// ParseTriState maps the wire values "any", "yes" and "no". Unknown
// values and the empty string read as AcceptedAny.
func ParseTriState(s string) TriState {
	switch s {
	case "yes":
		return AcceptedYes
	case "no":
		return AcceptedNo
	default:
		return AcceptedAny
	}
}

// SortKey selects the active sort of a view.
type SortKey int

// Sort keys. Creation-time sorts compare date values, entities lacking a
// creation time sort as the oldest possible value. Name sorts are
// locale-aware and case-insensitive with a missing name treated as the
// empty string.
const (
	SortCreatedDesc SortKey = iota // newest first, the tab default
	SortCreatedAsc
	SortNameAsc
	SortNameDesc
)

// ParseSortKey maps the wire values used by the tab sort dropdowns.
// Unknown values read as SortCreatedDesc.
func ParseSortKey(s string) SortKey {
	switch s {
	case "createdAsc":
		return SortCreatedAsc
	case "nameAsc":
		return SortNameAsc
	case "nameDesc":
		return SortNameDesc
	default:
		return SortCreatedDesc
	}
}

// State is the per-tab query state. It is purely local and never
// persisted; the derived view is recomputed from it on every read.
type State struct {
	Search   string
	Source   string // FilterAny or "" disables
	Accepted TriState
	Plan     string // FilterAny or "" disables
	Sort     SortKey
}

// Capabilities describes how the engine reads one entity type. A nil
// accessor disables the corresponding filter for that tab.
type Capabilities[T any] struct {
	// Decode converts a store document into the entity.
	Decode func(doc store.Document) (T, error)

	// SearchFields returns the fixed list of searchable field values.
	// List-valued fields are flattened into this slice.
	SearchFields func(T) []string

	// Source returns the record's source tag.
	Source func(T) string

	// Accepted reports the accepted-terms flag; missing counts as false.
	Accepted func(T) bool

	// Plan returns the record's plan.
	Plan func(T) string

	// Name returns the record's display name for name sorts.
	Name func(T) string

	// CreatedAt returns the record's creation time.
	CreatedAt func(T) time.Time
}

// Subscriber is the change-feed surface the engine depends on.
type Subscriber interface {
	Subscribe(collection string, order store.OrderSpec, fn store.SnapshotFunc) store.Unsubscribe
}

// Engine mirrors one collection and answers view queries over it.
type Engine[T any] struct {
	records    Subscriber
	collection string
	order      store.OrderSpec
	caps       Capabilities[T]

	mu       sync.RWMutex
	snapshot []T
	release  store.Unsubscribe
}

// NewEngine creates an inactive engine for a collection. Call Activate to
// open the subscription.
func NewEngine[T any](records Subscriber, collection string, order store.OrderSpec, caps Capabilities[T]) *Engine[T] {
	return &Engine[T]{
		records:    records,
		collection: collection,
		order:      order,
		caps:       caps,
	}
}

// Activate opens exactly one subscription for the engine. Each change
// notification replaces the whole snapshot; the engine never patches it
// incrementally. Activating an active engine is a no-op.
func (e *Engine[T]) Activate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.release != nil {
		return
	}
	e.release = e.records.Subscribe(e.collection, e.order, e.replaceSnapshot)
}

// Release closes the subscription deterministically: once it returns no
// further snapshot is applied. A released engine keeps its last snapshot
// and may be re-activated, which opens a fresh subscription.
func (e *Engine[T]) Release() {
	e.mu.Lock()
	release := e.release
	e.release = nil
	e.mu.Unlock()

	if release != nil {
		release()
	}
}

// replaceSnapshot decodes a delivered document set and swaps it in
// wholesale. Documents that fail to decode are logged and skipped.
func (e *Engine[T]) replaceSnapshot(docs []store.Document) {
	next := make([]T, 0, len(docs))
	for i := range docs {
		item, err := e.caps.Decode(docs[i])
		if err != nil {
			slog.Error("skipping undecodable record",
				"collection", e.collection, "id", docs[i].ID, "error", err)
			continue
		}
		next = append(next, item)
	}

	e.mu.Lock()
	e.snapshot = next
	e.mu.Unlock()
}

// Snapshot returns a copy of the current mirror in store order.
func (e *Engine[T]) Snapshot() []T {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]T(nil), e.snapshot...)
}

// Len returns the number of records currently mirrored.
func (e *Engine[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.snapshot)
}

// View derives the filtered and sorted view for the given query state.
// It is a pure function of (snapshot, state): identical inputs yield an
// identical order, and ties keep their snapshot order.
func (e *Engine[T]) View(qs State) []T {
	snapshot := e.Snapshot()

	filtered := snapshot[:0:0]
	for _, item := range snapshot {
		if e.matches(item, qs) {
			filtered = append(filtered, item)
		}
	}

	e.sortView(filtered, qs.Sort)
	return filtered
}

// matches evaluates the conjunction of the independent filter predicates.
// A control set to the sentinel is a no-op, as is a predicate the tab has
// no accessor for.
func (e *Engine[T]) matches(item T, qs State) bool {
	if active(qs.Source) && e.caps.Source != nil {
		if e.caps.Source(item) != qs.Source {
			return false
		}
	}

	if qs.Accepted != AcceptedAny && e.caps.Accepted != nil {
		accepted := e.caps.Accepted(item)
		if qs.Accepted == AcceptedYes && !accepted {
			return false
		}
		if qs.Accepted == AcceptedNo && accepted {
			return false
		}
	}

	if active(qs.Plan) && e.caps.Plan != nil {
		if e.caps.Plan(item) != qs.Plan {
			return false
		}
	}

	q := strings.ToLower(strings.TrimSpace(qs.Search))
	if q == "" {
		return true
	}
	hay := strings.ToLower(strings.Join(e.caps.SearchFields(item), " "))
	return strings.Contains(hay, q)
}

func active(filter string) bool {
	return filter != "" && filter != FilterAny
}

// sortView sorts in place, stable with respect to equal keys.
func (e *Engine[T]) sortView(items []T, key SortKey) {
	switch key {
	case SortCreatedAsc:
		sort.SliceStable(items, func(i, j int) bool {
			return e.caps.CreatedAt(items[i]).Before(e.caps.CreatedAt(items[j]))
		})
	case SortCreatedDesc:
		sort.SliceStable(items, func(i, j int) bool {
			return e.caps.CreatedAt(items[j]).Before(e.caps.CreatedAt(items[i]))
		})
	case SortNameAsc, SortNameDesc:
		// Collators are not safe for concurrent use, so each sort gets
		// its own.
		c := collate.New(language.Und, collate.IgnoreCase)
		sort.SliceStable(items, func(i, j int) bool {
			cmp := c.CompareString(e.caps.Name(items[i]), e.caps.Name(items[j]))
			if key == SortNameDesc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
}
