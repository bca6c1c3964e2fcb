// Package gate decides whether the protected dashboard renders, a denial
// view renders, or the visitor is redirected to login. When it bounces an
// unauthenticated visitor it first captures any filter parameters from the
// URL so a shared link survives the login detour.
package gate

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"vizboard/internal/filter"
	"vizboard/internal/persist"
)

// State is the gate's render state.
type State string

const (
	StateChecking         State = "checking"
	StateAuthenticated    State = "authenticated"
	StateDeniedWithIntent State = "denied_with_intent"
	StateRedirecting      State = "redirecting"
)

// Location is the navigation target being gated.
type Location struct {
	Path  string
	Query url.Values
}

// String re-assembles the location for post-login return links.
func (l Location) String() string {
	if len(l.Query) == 0 {
		return l.Path
	}
	return l.Path + "?" + l.Query.Encode()
}

// Decision is the terminal outcome of one mount.
type Decision struct {
	State State
	// From is the originating location, remembered so login can return to it.
	From Location
}

// Checker is the asynchronous authentication check. Implementations should
// be cheap; the session-backed checker just reports credential presence.
type Checker interface {
	Check(ctx context.Context) (bool, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) (bool, error)

func (f CheckerFunc) Check(ctx context.Context) (bool, error) { return f(ctx) }

// Gate runs the access decision. Each Mount is a one-shot decision; if a
// newer Mount starts while a check is in flight, the older check's outcome
// is discarded (last-mount-wins).
type Gate struct {
	checker Checker
	store   persist.Store
	logger  *slog.Logger

	mu       sync.Mutex
	seq      uint64
	decision Decision
}

func New(checker Checker, store persist.Store, logger *slog.Logger) *Gate {
	return &Gate{
		checker:  checker,
		store:    store,
		logger:   logger,
		decision: Decision{State: StateChecking},
	}
}

// Decision returns the current decision; StateChecking until the newest
// mount's check resolves.
func (g *Gate) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

// Mount starts the access check for a location and returns a channel that
// closes when this mount's check has resolved (published or discarded).
func (g *Gate) Mount(ctx context.Context, loc Location) <-chan struct{} {
	g.mu.Lock()
	g.seq++
	mine := g.seq
	g.decision = Decision{State: StateChecking, From: loc}
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)

		authed, err := g.checker.Check(ctx)
		if err != nil {
			// An unanswerable check gates like an unauthenticated visitor.
			g.logger.Error("auth check failed", "error", err)
			authed = false
		}

		captured := 0
		if !authed {
			captured = filter.CaptureParams(g.store, loc.Query)
			if captured > 0 {
				g.logger.Info("captured filter params for later", "count", captured)
			}
		}

		g.mu.Lock()
		defer g.mu.Unlock()
		if mine != g.seq {
			// A newer mount superseded this check.
			return
		}

		switch {
		case authed:
			g.decision = Decision{State: StateAuthenticated, From: loc}
		case captured > 0:
			g.decision = Decision{State: StateDeniedWithIntent, From: loc}
		default:
			g.decision = Decision{State: StateRedirecting, From: loc}
		}
	}()
	return done
}
