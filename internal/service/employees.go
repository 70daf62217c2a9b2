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

// EmployeeService manages the personnel tab.
type EmployeeService struct {
	records *store.Store
	engine  *query.Engine[model.Employee]
}

// NewEmployeeService creates the personnel tab service.
func NewEmployeeService(records *store.Store) *EmployeeService {
	caps := query.Capabilities[model.Employee]{
		Decode: func(doc store.Document) (model.Employee, error) {
			var e model.Employee
			if err := doc.Decode(&e); err != nil {
				return e, err
			}
			e.DocID = doc.ID
			return e, nil
		},
		SearchFields: func(e model.Employee) []string {
			return []string{e.Name, e.Email, e.Position}
		},
		Name:      func(e model.Employee) string { return e.Name },
		CreatedAt: func(e model.Employee) time.Time { return e.CreatedAt },
	}
	return &EmployeeService{
		records: records,
		engine:  query.NewEngine(records, model.CollectionEmployees, store.OrderByCreatedDesc, caps),
	}
}

// Activate opens the tab's subscription.
func (s *EmployeeService) Activate() { s.engine.Activate() }

// Release closes the tab's subscription.
func (s *EmployeeService) Release() { s.engine.Release() }

// View returns the filtered, sorted personnel list for the given query state.
func (s *EmployeeService) View(qs query.State) []model.Employee { return s.engine.View(qs) }

// Add creates a personnel record.
func (s *EmployeeService) Add(ctx context.Context, name, email, position string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &model.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	id, err := s.records.Create(ctx, model.CollectionEmployees, map[string]any{
		"name":      name,
		"email":     model.NormalizeEmail(email),
		"position":  strings.TrimSpace(position),
		"createdAt": time.Now().UTC(),
	})
	if err != nil {
		return "", &model.OperationError{Op: "adding employee", Err: err}
	}
	return id, nil
}

// Edit updates a personnel record in place.
func (s *EmployeeService) Edit(ctx context.Context, id, name, email, position string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &model.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	if err := s.records.Update(ctx, model.CollectionEmployees, id, map[string]any{
		"name":     name,
		"email":    model.NormalizeEmail(email),
		"position": strings.TrimSpace(position),
	}); err != nil {
		return &model.OperationError{Op: "editing employee", Err: err}
	}
	return nil
}

// Delete removes a personnel record.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, model.CollectionEmployees, id); err != nil {
		return &model.OperationError{Op: "deleting employee", Err: err}
	}
	return nil
}
