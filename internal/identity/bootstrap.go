// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shieldhq/shield-admin/internal/auth"
	"github.com/shieldhq/shield-admin/internal/model"
	"github.com/shieldhq/shield-admin/internal/store"
)

// Bootstrap creates the initial admin account when the admin set is
// empty. Without at least one admin record the gate rejects everyone with
// the "unconfigured" message, so deployments set the bootstrap variables
// for first start. Idempotent: a non-empty admin set leaves the store
// untouched.
func Bootstrap(ctx context.Context, records *store.Store, email, password string) error {
	email = model.NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("bootstrap admin email is empty after normalization")
	}

	admins, err := records.CountByField(ctx, model.CollectionUsers, "role", model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("counting admin records: %w", err)
	}
	if admins > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing bootstrap password: %w", err)
	}

	now := time.Now().UTC()
	if err := records.Put(ctx, model.CollectionUsers, email, map[string]any{
		"email":     email,
		"role":      model.RoleAdmin,
		"createdAt": now,
	}); err != nil {
		return fmt.Errorf("writing bootstrap admin record: %w", err)
	}

	if err := records.Put(ctx, CollectionCredentials, email, map[string]any{
		"email":        email,
		"passwordHash": hash,
		"createdAt":    now,
	}); err != nil {
		return fmt.Errorf("writing bootstrap credentials: %w", err)
	}

	slog.Info("bootstrap admin created", "email", email)
	return nil
}

// SetPassword writes or replaces the credentials for an account.
func SetPassword(ctx context.Context, records *store.Store, email, password string) error {
	email = model.NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email is empty after normalization")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := records.Put(ctx, CollectionCredentials, email, map[string]any{
		"email":        email,
		"passwordHash": hash,
	}); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}
