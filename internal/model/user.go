// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the record types curated through the console:
// users, feeds, wanted entries, employees, join applications and service
// requests, plus the audit event type.
package model

import (
	"strings"
	"time"
)

// CollectionUsers is the collection holding dashboard account records.
const CollectionUsers = "users"

// User roles. A record without a role field is treated as RoleUser.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents a dashboard account record. The document id is normally
// the normalized email, but legacy rows carry an arbitrary id and a
// separate email field.
type User struct {
	DocID     string    `json:"-"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin returns true if the user has the admin role. A missing or
// unknown role never grants access.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// EffectiveEmail returns the email field, falling back to the document id
// for rows written with the id-as-email convention.
func (u *User) EffectiveEmail() string {
	if u.Email != "" {
		return u.Email
	}
	return u.DocID
}

// NormalizeEmail trims surrounding whitespace and lower-cases an email
// address. It is idempotent and safe on the empty string.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
