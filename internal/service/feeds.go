// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the per-tab record services. Each service owns
// one live query engine over its collection plus the write operations for
// that tab. Writes pass straight through to the record store and never
// touch the local snapshot: the view catches up on the next change
// notification, so it is never ahead of the authoritative store.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/shieldhq/shield-admin/internal/model"
	"github.com/shieldhq/shield-admin/internal/query"
	"github.com/shieldhq/shield-admin/internal/store"
)

// FeedService manages the feeds tab.
type FeedService struct {
	records *store.Store
	engine  *query.Engine[model.Feed]
}

// NewFeedService creates the feeds tab service. Call Activate to open the
// change-feed subscription.
func NewFeedService(records *store.Store) *FeedService {
	caps := query.Capabilities[model.Feed]{
		Decode: func(doc store.Document) (model.Feed, error) {
			var f model.Feed
			if err := doc.Decode(&f); err != nil {
				return f, err
			}
			f.DocID = doc.ID
			return f, nil
		},
		SearchFields: func(f model.Feed) []string {
			fields := []string{f.Title, f.Body, f.Status}
			return append(fields, f.AssignedTo...)
		},
		Name:      func(f model.Feed) string { return f.Title },
		CreatedAt: func(f model.Feed) time.Time { return f.CreatedAt },
	}
	return &FeedService{
		records: records,
		engine:  query.NewEngine(records, model.CollectionFeeds, store.OrderByCreatedDesc, caps),
	}
}

// Activate opens the tab's subscription.
func (s *FeedService) Activate() { s.engine.Activate() }

// Release closes the tab's subscription.
func (s *FeedService) Release() { s.engine.Release() }

// View returns the filtered, sorted feed list for the given query state.
func (s *FeedService) View(qs query.State) []model.Feed { return s.engine.View(qs) }

// Create adds a pending feed assigned to at least one recipient.
func (s *FeedService) Create(ctx context.Context, title, body string, assignedTo []string) (string, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" {
		return "", &model.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if body == "" {
		return "", &model.ValidationError{Field: "body", Reason: "must not be empty"}
	}
	if len(assignedTo) == 0 {
		return "", &model.ValidationError{Field: "assignedTo", Reason: "select at least one recipient"}
	}

	id, err := s.records.Create(ctx, model.CollectionFeeds, map[string]any{
		"title":      title,
		"body":       body,
		"assignedTo": assignedTo,
		"status":     model.FeedStatusPending,
		"createdAt":  time.Now().UTC(),
	})
	if err != nil {
		return "", &model.OperationError{Op: "creating feed", Err: err}
	}
	return id, nil
}

// MarkDone flips a feed's status to done.
func (s *FeedService) MarkDone(ctx context.Context, id string) error {
	if err := s.records.Update(ctx, model.CollectionFeeds, id, map[string]any{
		"status": model.FeedStatusDone,
	}); err != nil {
		return &model.OperationError{Op: "marking feed done", Err: err}
	}
	return nil
}

// Delete removes a feed.
func (s *FeedService) Delete(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, model.CollectionFeeds, id); err != nil {
		return &model.OperationError{Op: "deleting feed", Err: err}
	}
	return nil
}
