// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"time"

	"github.com/shieldhq/shield-admin/internal/model"
	"github.com/shieldhq/shield-admin/internal/query"
	"github.com/shieldhq/shield-admin/internal/store"
)

// ApplicationService manages the membership-applications tab. Applications
// arrive from external signup forms; the console only reviews and removes
// them, so delete is the sole write operation.
type ApplicationService struct {
	records *store.Store
	engine  *query.Engine[model.JoinApplication]
}

// NewApplicationService creates the applications tab service.
func NewApplicationService(records *store.Store) *ApplicationService {
	caps := query.Capabilities[model.JoinApplication]{
		Decode: func(doc store.Document) (model.JoinApplication, error) {
			var a model.JoinApplication
			if err := doc.Decode(&a); err != nil {
				return a, err
			}
			a.DocID = doc.ID
			return a, nil
		},
		SearchFields: func(a model.JoinApplication) []string {
			fields := []string{a.FullName, a.Email, a.Contact, a.Reason}
			return append(fields, a.Interests...)
		},
		Source:    func(a model.JoinApplication) string { return a.Source },
		Accepted:  func(a model.JoinApplication) bool { return a.AcceptedTerms.Bool() },
		Name:      func(a model.JoinApplication) string { return a.FullName },
		CreatedAt: func(a model.JoinApplication) time.Time { return a.CreatedAt },
	}
	return &ApplicationService{
		records: records,
		engine:  query.NewEngine(records, model.CollectionApplications, store.OrderByCreatedDesc, caps),
	}
}

// Activate opens the tab's subscription.
func (s *ApplicationService) Activate() { s.engine.Activate() }

// Release closes the tab's subscription.
func (s *ApplicationService) Release() { s.engine.Release() }

// View returns the filtered, sorted application list for the given query state.
func (s *ApplicationService) View(qs query.State) []model.JoinApplication { return s.engine.View(qs) }

// Delete removes a reviewed application.
func (s *ApplicationService) Delete(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, model.CollectionApplications, id); err != nil {
		return &model.OperationError{Op: "deleting application", Err: err}
	}
	return nil
}
