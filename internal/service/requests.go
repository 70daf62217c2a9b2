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

// RequestService manages the service-requests tab. Like applications,
// requests are produced by external forms and only reviewed here.
type RequestService struct {
	records *store.Store
	engine  *query.Engine[model.ServiceRequest]
}

// NewRequestService creates the service-requests tab service.
func NewRequestService(records *store.Store) *RequestService {
	caps := query.Capabilities[model.ServiceRequest]{
		Decode: func(doc store.Document) (model.ServiceRequest, error) {
			var r model.ServiceRequest
			if err := doc.Decode(&r); err != nil {
				return r, err
			}
			r.DocID = doc.ID
			return r, nil
		},
		SearchFields: func(r model.ServiceRequest) []string {
			return []string{r.Name, r.Email, r.PreferredContact, r.Requirements, r.ProjectReference}
		},
		Source:    func(r model.ServiceRequest) string { return r.Source },
		Accepted:  func(r model.ServiceRequest) bool { return r.AcceptedTerms.Bool() },
		Plan:      func(r model.ServiceRequest) string { return r.Plan },
		Name:      func(r model.ServiceRequest) string { return r.Name },
		CreatedAt: func(r model.ServiceRequest) time.Time { return r.CreatedAt },
	}
	return &RequestService{
		records: records,
		engine:  query.NewEngine(records, model.CollectionRequests, store.OrderByCreatedDesc, caps),
	}
}

// Activate opens the tab's subscription.
func (s *RequestService) Activate() { s.engine.Activate() }

// Release closes the tab's subscription.
func (s *RequestService) Release() { s.engine.Release() }

// View returns the filtered, sorted request list for the given query state.
func (s *RequestService) View(qs query.State) []model.ServiceRequest { return s.engine.View(qs) }

// Delete removes a reviewed request.
func (s *RequestService) Delete(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, model.CollectionRequests, id); err != nil {
		return &model.OperationError{Op: "deleting request", Err: err}
	}
	return nil
}
