// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

// Package gate decides whether the current actor may see the console at
// all. It owns the login/logout state machine and the admin-authorization
// check, including the unconfigured-system and legacy-keying rules.
package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/shieldhq/shield-admin/internal/model"
	"github.com/shieldhq/shield-admin/internal/store"
)

// Authorization failures. Each maps to a distinct operator-facing message
// so "you are not admin" and "no admin exists yet" remain actionable.
var (
	// ErrNotAdmin means the identity has no admin record, or its record
	// lacks the admin role.
	ErrNotAdmin = errors.New("account is not an admin")

	// ErrUnconfigured means no admin record exists at all: the system has
	// never been set up, and nobody can pass the gate until one is created.
	ErrUnconfigured = errors.New("no admin accounts configured")

	// ErrSessionCheck wraps store failures during the check. Retryable.
	ErrSessionCheck = errors.New("session check failed")
)

// Operator-facing messages for the terminal states of the check.
const (
	MsgNotAuthorized      = "This account is not authorized for the admin console."
	MsgUnconfigured       = "No admin accounts exist yet. Create an admin record before signing in."
	MsgSessionCheckFailed = "Session check failed. Please try again."
)

// legacyScanLimit caps the fallback scan over rows keyed by the old
// convention (arbitrary document id, email kept in a field).
const legacyScanLimit = 10

// RecordReader is the read-side store surface the resolver depends on.
type RecordReader interface {
	Get(ctx context.Context, collection, id string) (*store.Document, error)
	FindByField(ctx context.Context, collection, field, value string, limit int) ([]store.Document, error)
	CountByField(ctx context.Context, collection, field, value string) (int64, error)
}

// Resolver performs the admin-authorization check against the users
// collection. It is shared by the Gate and the HTTP session middleware so
// the decision has exactly one implementation.
type Resolver struct {
	records RecordReader
}

// NewResolver creates a Resolver over the given record reader.
func NewResolver(records RecordReader) *Resolver {
	return &Resolver{records: records}
}

// Authorize decides whether the identity may use the console. It fails
// closed: a nil return is the only authorized outcome.
//
// Resolution order: normalize the email; reject an unconfigured system
// (empty admin set) before anything else; look the record up by primary
// key; fall back to a bounded scan over the legacy email field.
func (r *Resolver) Authorize(ctx context.Context, email string) error {
	email = model.NormalizeEmail(email)
	if email == "" {
		return ErrNotAdmin
	}

	admins, err := r.records.CountByField(ctx, model.CollectionUsers, "role", model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSessionCheck, err)
	}
	if admins == 0 {
		return ErrUnconfigured
	}

	doc, err := r.records.Get(ctx, model.CollectionUsers, email)
	switch {
	case err == nil:
		// Found by key: the record's role decides, absence denies.
		var u model.User
		if derr := doc.Decode(&u); derr != nil {
			return fmt.Errorf("%w: %w", ErrSessionCheck, derr)
		}
		if u.IsAdmin() {
			return nil
		}
		return ErrNotAdmin
	case errors.Is(err, store.ErrNotFound):
		// Legacy data path below.
	default:
		return fmt.Errorf("%w: %w", ErrSessionCheck, err)
	}

	docs, err := r.records.FindByField(ctx, model.CollectionUsers, "email", email, legacyScanLimit)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSessionCheck, err)
	}
	for i := range docs {
		var u model.User
		if derr := docs[i].Decode(&u); derr != nil {
			continue
		}
		if u.IsAdmin() {
			return nil
		}
	}
	return ErrNotAdmin
}

// MessageFor maps an authorization failure to its operator-facing message.
func MessageFor(err error) string {
	switch {
	case errors.Is(err, ErrUnconfigured):
		return MsgUnconfigured
	case errors.Is(err, ErrNotAdmin):
		return MsgNotAuthorized
	default:
		return MsgSessionCheckFailed
	}
}
