// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

// Package identity provides the sign-in primitive consumed by the access
// gate: password sign-in, sign-out and identity-change callbacks, backed
// by a credentials collection in the document store.
package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shieldhq/shield-admin/internal/auth"
	"github.com/shieldhq/shield-admin/internal/model"
	"github.com/shieldhq/shield-admin/internal/store"
)

// CollectionCredentials holds password credentials keyed by normalized email.
const CollectionCredentials = "credentials"

// ErrInvalidCredentials is returned on any credential rejection. It is
// deliberately generic: callers must not learn whether the email or the
// password was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Identity is an authenticated principal.
type Identity struct {
	Email string
}

// ChangeFunc receives the current identity, or nil after sign-out.
type ChangeFunc func(id *Identity)

// Provider is the identity primitive consumed by the access gate.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context) error
	// OnChange registers a callback fired with the current identity
	// immediately and again on every sign-in and sign-out. The returned
	// function unregisters it.
	OnChange(fn ChangeFunc) func()
}

// credential is the stored shape of a credentials document.
type credential struct {
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

// StoreProvider implements Provider against the document store.
type StoreProvider struct {
	records *store.Store

	mu        sync.Mutex
	current   *Identity
	listeners map[int]ChangeFunc
	nextID    int
}

// NewStoreProvider creates a store-backed identity provider.
func NewStoreProvider(records *store.Store) *StoreProvider {
	return &StoreProvider{
		records:   records,
		listeners: make(map[int]ChangeFunc),
	}
}

// SignInWithPassword verifies the credentials and, on success, sets the
// current identity and fires identity-change callbacks.
func (p *StoreProvider) SignInWithPassword(ctx context.Context, email, password string) (*Identity, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	doc, err := p.records.Get(ctx, CollectionCredentials, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	var cred credential
	if err := doc.Decode(&cred); err != nil {
		return nil, fmt.Errorf("decoding credentials: %w", err)
	}

	ok, err := auth.CheckPassword(password, cred.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	id := &Identity{Email: email}
	p.setCurrent(id)
	return id, nil
}

// SignOut clears the current identity and fires identity-change callbacks.
// Signing out while signed out is a no-op.
func (p *StoreProvider) SignOut(_ context.Context) error {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return nil
	}
	p.current = nil
	fns := p.snapshotListeners()
	p.mu.Unlock()

	for _, fn := range fns {
		fn(nil)
	}
	return nil
}

// OnChange registers an identity-change callback and fires it immediately
// with the current identity.
func (p *StoreProvider) OnChange(fn ChangeFunc) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	current := p.current
	p.mu.Unlock()

	fn(current)

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// Current returns the current identity, or nil when signed out.
func (p *StoreProvider) Current() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *StoreProvider) setCurrent(id *Identity) {
	p.mu.Lock()
	p.current = id
	fns := p.snapshotListeners()
	p.mu.Unlock()

	// Listeners run outside the lock: they may sign out re-entrantly.
	for _, fn := range fns {
		fn(id)
	}
}

// snapshotListeners must be called with the mutex held.
func (p *StoreProvider) snapshotListeners() []ChangeFunc {
	fns := make([]ChangeFunc, 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	return fns
}
