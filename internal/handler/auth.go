// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/shieldhq/shield-admin/internal/gate"
	"github.com/shieldhq/shield-admin/internal/identity"
	"github.com/shieldhq/shield-admin/internal/middleware"
	"github.com/shieldhq/shield-admin/internal/model"
)

// AuthHandler serves the login and logout endpoints. A successful login
// performs the same two steps as the gate: credential sign-in, then the
// admin-authorization check. Passing credentials without passing the
// check never produces a session.
type AuthHandler struct {
	provider   identity.Provider
	resolver   *gate.Resolver
	sm         *scs.SessionManager
	protection *middleware.LoginProtection
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(provider identity.Provider, resolver *gate.Resolver, sm *scs.SessionManager, protection *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		provider:   provider,
		resolver:   resolver,
		sm:         sm,
		protection: protection,
	}
}

// loginRequest is the POST /login payload.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse describes the session to the client.
type sessionResponse struct {
	Email string `json:"email,omitempty"`
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	email := model.NormalizeEmail(req.Email)
	if email == "" {
		WriteValidationError(w, map[string]string{"email": "must not be empty"})
		return
	}

	if locked, remaining := h.protection.IsAccountLocked(email); locked {
		slog.Warn("login attempt on locked account", "email", email)
		WriteError(w, http.StatusTooManyRequests, "account_locked",
			fmt.Sprintf("Account temporarily locked. Try again in %s.", remaining.Round(time.Second)), nil)
		return
	}

	if _, err := h.provider.SignInWithPassword(r.Context(), email, req.Password); err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			if locked, dur := h.protection.RecordFailedAttempt(email); locked {
				WriteError(w, http.StatusTooManyRequests, "account_locked",
					fmt.Sprintf("Too many failed attempts. Account locked for %s.", dur), nil)
				return
			}
			// Generic on purpose: no detail about which part was wrong.
			WriteUnauthorized(w, identity.ErrInvalidCredentials.Error())
			return
		}
		slog.Error("sign-in failed", "error", err)
		WriteInternalError(w, gate.MsgSessionCheckFailed)
		return
	}

	if err := h.resolver.Authorize(r.Context(), email); err != nil {
		// Fail closed: the credentials were right, but the account may
		// not hold a session it cannot use.
		if serr := h.provider.SignOut(r.Context()); serr != nil {
			slog.Error("forced sign-out failed", "error", serr)
		}
		slog.Warn("unauthorized sign-in rejected", "email", email, "reason", err)
		WriteForbidden(w, gate.MessageFor(err))
		return
	}

	h.protection.RecordSuccessfulLogin(email)

	// Renew the token to prevent session fixation.
	if err := h.sm.RenewToken(r.Context()); err != nil {
		slog.Error("renewing session token failed", "error", err)
		WriteInternalError(w, gate.MsgSessionCheckFailed)
		return
	}
	h.sm.Put(r.Context(), middleware.SessionKeyEmail, email)

	slog.Info("login", "email", email)
	WriteSuccess(w, sessionResponse{Email: email}, nil)
}

// Logout handles POST /logout. Logging out while logged out succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	email := h.sm.GetString(r.Context(), middleware.SessionKeyEmail)

	if err := h.sm.Destroy(r.Context()); err != nil {
		slog.Error("destroying session failed", "error", err)
		WriteInternalError(w, "Logout failed")
		return
	}
	if err := h.provider.SignOut(r.Context()); err != nil {
		slog.Error("sign-out failed", "error", err)
	}

	if email != "" {
		slog.Info("logout", "email", email)
	}
	WriteSuccess(w, sessionResponse{}, nil)
}

// Session handles GET /session, reporting the current login state.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	email := h.sm.GetString(r.Context(), middleware.SessionKeyEmail)
	if email == "" {
		WriteUnauthorized(w, "Not signed in")
		return
	}

	if err := h.resolver.Authorize(r.Context(), email); err != nil {
		_ = h.sm.Destroy(r.Context())
		WriteForbidden(w, gate.MessageFor(err))
		return
	}

	WriteSuccess(w, sessionResponse{Email: model.NormalizeEmail(email)}, nil)
}
