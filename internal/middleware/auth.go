// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/shieldhq/shield-admin/internal/gate"
	"github.com/shieldhq/shield-admin/internal/model"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request-scoped data.
const (
	ContextKeyEmail       ContextKey = "email"
	ContextKeyRequestPath ContextKey = "request_path"
)

// SessionKeyEmail is the session key holding the signed-in email.
const SessionKeyEmail = "email"

// Auth creates middleware that requires a signed-in session. Requests
// without one get a 401 JSON error; the guarded routes are API routes,
// never pages.
func Auth(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sm.GetString(r.Context(), SessionKeyEmail) == "" {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin creates middleware that re-checks the admin authorization
// of the session's email on every request. A session whose account lost
// the admin role, or whose check cannot complete, is destroyed and gets
// a 403: the console fails closed rather than serving a stale
// authorization.
func RequireAdmin(sm *scs.SessionManager, resolver *gate.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := model.NormalizeEmail(sm.GetString(r.Context(), SessionKeyEmail))
			if email == "" {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			if err := resolver.Authorize(r.Context(), email); err != nil {
				slog.Warn("session failed admin check",
					"email", email,
					"path", r.URL.Path,
					"reason", err,
				)
				_ = sm.Destroy(r.Context())
				WriteAPIError(w, http.StatusForbidden, "forbidden", gate.MessageFor(err))
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyEmail, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserEmail returns the authorized email from context, or empty string
// if the request did not pass RequireAdmin.
func GetUserEmail(r *http.Request) string {
	email, ok := r.Context().Value(ContextKeyEmail).(string)
	if !ok {
		return ""
	}
	return email
}

// RequestPath creates middleware that stores the request path in the
// context, for log records emitted deep inside handlers.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, ok := ctx.Value(ContextKeyRequestPath).(string)
	if !ok {
		return ""
	}
	return path
}
