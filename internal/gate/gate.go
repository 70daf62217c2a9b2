// Copyright (c) 2026 ShieldHQ
// SPDX-License-Identifier: GPL-3.0-or-later

package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/shieldhq/shield-admin/internal/identity"
	"github.com/shieldhq/shield-admin/internal/model"
)

// Phase is the gate's position in the login state machine.
type Phase int

// Gate phases. The dashboard renders only in PhaseLoggedIn.
const (
	PhaseCheckingSession Phase = iota
	PhaseLoggedOut
	PhaseLoggedIn
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseCheckingSession:
		return "checking-session"
	case PhaseLoggedOut:
		return "logged-out"
	case PhaseLoggedIn:
		return "logged-in"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is a snapshot of the session owned by the gate.
type State struct {
	Phase      Phase
	Email      string // empty unless logged in
	LastError  string
	LastNotice string
}

// ChangeFunc observes state transitions, for the render layer.
type ChangeFunc func(s State)

// Gate is the login/logout state machine. Identity-change events are
// processed to completion one at a time on a single goroutine, so an
// authorization check in progress is never interleaved with a newer
// event, and a closed gate never mutates its state again.
type Gate struct {
	provider identity.Provider
	resolver *Resolver

	mu    sync.Mutex
	state State

	loginInFlight atomic.Bool

	onChange ChangeFunc

	events      chan *identity.Identity
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe func()
	started     bool
}

// Option configures a Gate.
type Option func(*Gate)

// WithOnChange registers a state-transition observer.
func WithOnChange(fn ChangeFunc) Option {
	return func(g *Gate) { g.onChange = fn }
}

// New creates a Gate in PhaseCheckingSession. Call Start to begin
// processing identity changes.
func New(provider identity.Provider, resolver *Resolver, opts ...Option) *Gate {
	ctx, cancel := context.WithCancel(context.Background())
	g := &Gate{
		provider: provider,
		resolver: resolver,
		state:    State{Phase: PhaseCheckingSession},
		events:   make(chan *identity.Identity, 16),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Start subscribes to the identity provider. The provider fires the
// callback immediately with the current identity, which resolves the
// initial PhaseCheckingSession.
func (g *Gate) Start() {
	g.mu.Lock()
	if g.started {
		g.mu.Unlock()
		return
	}
	g.started = true
	g.mu.Unlock()

	g.wg.Add(1)
	go g.run()

	g.unsubscribe = g.provider.OnChange(func(id *identity.Identity) {
		select {
		case g.events <- id:
		case <-g.ctx.Done():
		}
	})
}

// Close tears the gate down: unsubscribes from the provider, cancels any
// check in progress and waits for the event loop to stop. After Close
// returns the gate's state never changes again.
func (g *Gate) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
	g.cancel()
	g.wg.Wait()
}

// State returns a snapshot of the current session state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// SubmitLogin validates the input and delegates to the provider's
// password sign-in. Success does not itself flip the phase: the resulting
// identity-change event re-runs the authorization check, so authorization
// is evaluated from a single code path however the identity appeared.
//
// Concurrent submissions are serialized by an in-flight guard: a second
// call while one is outstanding is a no-op.
func (g *Gate) SubmitLogin(ctx context.Context, email, password string) error {
	if !g.loginInFlight.CompareAndSwap(false, true) {
		return nil
	}
	defer g.loginInFlight.Store(false)

	email = model.NormalizeEmail(email)
	if email == "" {
		return &model.ValidationError{Field: "email", Reason: "must not be empty"}
	}

	if _, err := g.provider.SignInWithPassword(ctx, email, password); err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			// Generic on purpose: no detail about which part was wrong.
			return identity.ErrInvalidCredentials
		}
		return fmt.Errorf("%w: %w", ErrSessionCheck, err)
	}
	return nil
}

// Logout signs the current identity out. The phase flips to
// PhaseLoggedOut via the identity-change path.
func (g *Gate) Logout(ctx context.Context) error {
	g.mu.Lock()
	g.state.LastError = ""
	g.state.LastNotice = ""
	g.mu.Unlock()

	return g.provider.SignOut(ctx)
}

// run processes identity-change events one at a time.
func (g *Gate) run() {
	defer g.wg.Done()
	for {
		select {
		case <-g.ctx.Done():
			return
		case id := <-g.events:
			g.handleIdentity(id)
		}
	}
}

// handleIdentity performs the admin-authorization check for one
// identity-change event and applies the resulting transition.
func (g *Gate) handleIdentity(id *identity.Identity) {
	if id == nil {
		g.transition(func(s *State) {
			s.Phase = PhaseLoggedOut
			s.Email = ""
			// LastError is kept: a forced sign-out after a failed check
			// must not erase the message explaining it.
		})
		return
	}

	g.transition(func(s *State) {
		s.Phase = PhaseCheckingSession
		s.Email = ""
	})

	err := g.resolver.Authorize(g.ctx, id.Email)

	// The gate may have been closed while the check was in flight; a
	// superseded check discards its result instead of mutating state.
	if g.ctx.Err() != nil {
		return
	}

	if err == nil {
		g.transition(func(s *State) {
			s.Phase = PhaseLoggedIn
			s.Email = model.NormalizeEmail(id.Email)
			s.LastError = ""
			s.LastNotice = ""
		})
		return
	}

	msg := MessageFor(err)
	if errors.Is(err, ErrSessionCheck) {
		slog.Warn("authorization check failed", "error", err)
	} else {
		slog.Info("unauthorized sign-in rejected", "reason", err)
	}

	g.transition(func(s *State) {
		s.Phase = PhaseLoggedOut
		s.Email = ""
		s.LastError = msg
	})

	// Fail closed: never leave a partially-valid provider session behind.
	if serr := g.provider.SignOut(context.Background()); serr != nil {
		slog.Error("forced sign-out failed", "error", serr)
	}
}

func (g *Gate) transition(apply func(s *State)) {
	g.mu.Lock()
	apply(&g.state)
	snapshot := g.state
	g.mu.Unlock()

	if g.onChange != nil {
		g.onChange(snapshot)
	}
}
