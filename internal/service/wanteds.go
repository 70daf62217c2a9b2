// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"strings"
	"time"

	"github.com/shieldhq/shield-admin/internal/model"
	"github.com/shieldhq/shield-admin/internal/query"
	"github.com/shieldhq/shield-admin/internal/store"
)

// WantedService manages the wanted-list tab.
type WantedService struct {
	records *store.Store
	engine  *query.Engine[model.WantedEntry]
}

// NewWantedService creates the wanted-list tab service.
func NewWantedService(records *store.Store) *WantedService {
	caps := query.Capabilities[model.WantedEntry]{
		Decode: func(doc store.Document) (model.WantedEntry, error) {
			var w model.WantedEntry
			if err := doc.Decode(&w); err != nil {
				return w, err
			}
			w.DocID = doc.ID
			return w, nil
		},
		SearchFields: func(w model.WantedEntry) []string {
			return []string{w.Name, w.Reason}
		},
		Name:      func(w model.WantedEntry) string { return w.Name },
		CreatedAt: func(w model.WantedEntry) time.Time { return w.CreatedAt },
	}
	return &WantedService{
		records: records,
		engine:  query.NewEngine(records, model.CollectionWanteds, store.OrderByCreatedDesc, caps),
	}
}

// Activate opens the tab's subscription.
func (s *WantedService) Activate() { s.engine.Activate() }

// Release closes the tab's subscription.
func (s *WantedService) Release() { s.engine.Release() }

// View returns the filtered, sorted wanted list for the given query state.
func (s *WantedService) View(qs query.State) []model.WantedEntry { return s.engine.View(qs) }

// Add creates a wanted entry. Name and reason are both required.
func (s *WantedService) Add(ctx context.Context, name, reason string) (string, error) {
	name = strings.TrimSpace(name)
	reason = strings.TrimSpace(reason)
	if name == "" {
		return "", &model.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if reason == "" {
		return "", &model.ValidationError{Field: "reason", Reason: "must not be empty"}
	}

	id, err := s.records.Create(ctx, model.CollectionWanteds, map[string]any{
		"name":      name,
		"reason":    reason,
		"createdAt": time.Now().UTC(),
	})
	if err != nil {
		return "", &model.OperationError{Op: "adding wanted entry", Err: err}
	}
	return id, nil
}

// Edit updates an entry's name and reason. Both are required.
func (s *WantedService) Edit(ctx context.Context, id, name, reason string) error {
	name = strings.TrimSpace(name)
	reason = strings.TrimSpace(reason)
	if name == "" {
		return &model.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if reason == "" {
		return &model.ValidationError{Field: "reason", Reason: "must not be empty"}
	}

	if err := s.records.Update(ctx, model.CollectionWanteds, id, map[string]any{
		"name":   name,
		"reason": reason,
	}); err != nil {
		return &model.OperationError{Op: "editing wanted entry", Err: err}
	}
	return nil
}

// Delete removes an entry.
func (s *WantedService) Delete(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, model.CollectionWanteds, id); err != nil {
		return &model.OperationError{Op: "deleting wanted entry", Err: err}
	}
	return nil
}
