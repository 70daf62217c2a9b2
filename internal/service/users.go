// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"strings"
	"time"

	"github.com/shieldhq/shield-admin/internal/identity"
	"github.com/shieldhq/shield-admin/internal/model"
	"github.com/shieldhq/shield-admin/internal/query"
	"github.com/shieldhq/shield-admin/internal/store"
)

// UserService manages the dashboard-accounts tab. User documents are keyed
// by normalized email, so Add is a merging put: re-adding an existing
// account updates its fields without discarding the role.
type UserService struct {
	records *store.Store
	engine  *query.Engine[model.User]
}

// NewUserService creates the accounts tab service. The tab lists accounts
// in document-id order rather than newest first.
func NewUserService(records *store.Store) *UserService {
	caps := query.Capabilities[model.User]{
		Decode: func(doc store.Document) (model.User, error) {
			var u model.User
			if err := doc.Decode(&u); err != nil {
				return u, err
			}
			u.DocID = doc.ID
			return u, nil
		},
		SearchFields: func(u model.User) []string {
			return []string{u.EffectiveEmail(), u.Role}
		},
		Name:      func(u model.User) string { return u.EffectiveEmail() },
		CreatedAt: func(u model.User) time.Time { return u.CreatedAt },
	}
	return &UserService{
		records: records,
		engine:  query.NewEngine(records, model.CollectionUsers, store.OrderByID, caps),
	}
}

// Activate opens the tab's subscription.
func (s *UserService) Activate() { s.engine.Activate() }

// Release closes the tab's subscription.
func (s *UserService) Release() { s.engine.Release() }

// View returns the filtered, sorted account list for the given query state.
func (s *UserService) View(qs query.State) []model.User { return s.engine.View(qs) }

// Add creates or updates the account keyed by the normalized email. The
// write is a merging put: an empty role leaves any existing role in place,
// and a record that never had one reads as a plain user.
func (s *UserService) Add(ctx context.Context, email, role string) (string, error) {
	email = model.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", &model.ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	if role != "" && role != model.RoleAdmin && role != model.RoleUser {
		return "", &model.ValidationError{Field: "role", Reason: "must be admin or user"}
	}

	data := map[string]any{
		"email":     email,
		"createdAt": time.Now().UTC(),
	}
	if role != "" {
		data["role"] = role
	}
	if err := s.records.Put(ctx, model.CollectionUsers, email, data); err != nil {
		return "", &model.OperationError{Op: "adding user", Err: err}
	}
	return email, nil
}

// SetRole updates an account's role.
func (s *UserService) SetRole(ctx context.Context, id, role string) error {
	if role != model.RoleAdmin && role != model.RoleUser {
		return &model.ValidationError{Field: "role", Reason: "must be admin or user"}
	}
	if err := s.records.Update(ctx, model.CollectionUsers, id, map[string]any{
		"role": role,
	}); err != nil {
		return &model.OperationError{Op: "setting user role", Err: err}
	}
	return nil
}

// Delete removes an account record. The credentials record, if any, is
// removed with it so the email can no longer sign in.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, model.CollectionUsers, id); err != nil {
		return &model.OperationError{Op: "deleting user", Err: err}
	}
	if err := s.records.Delete(ctx, identity.CollectionCredentials, id); err != nil {
		return &model.OperationError{Op: "deleting user credentials", Err: err}
	}
	return nil
}

// AdminCount returns the number of accounts holding the admin role.
func (s *UserService) AdminCount(ctx context.Context) (int64, error) {
	n, err := s.records.CountByField(ctx, model.CollectionUsers, "role", model.RoleAdmin)
	if err != nil {
		return 0, &model.OperationError{Op: "counting admins", Err: err}
	}
	return n, nil
}
