package identity

import (
	"sync"

	"github.com/maikmano/zentask/domain"
)

// Gate tracks the authenticated identity for the session: exactly zero or
// one active at a time. Watchers are notified on every transition so
// dependent subscriptions tear down and resubscribe; a nil identity means
// signed out.
type Gate struct {
	mu       sync.Mutex
	current  *domain.Identity
	nextID   int
	watchers map[int]func(*domain.Identity)

	// notifyMu serializes watcher callbacks: transitions are delivered one
	// at a time, in the order they were recorded. Callbacks run without mu
	// held so they may call Current.
	notifyMu sync.Mutex
}

// NewGate creates a signed-out Gate.
func NewGate() *Gate {
	return &Gate{watchers: make(map[int]func(*domain.Identity))}
}

// Current returns the active identity, if any.
func (g *Gate) Current() (domain.Identity, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return domain.Identity{}, false
	}
	return *g.current, true
}

// Watch registers fn for identity transitions and returns its cancel func.
// fn is invoked immediately with the current state so late watchers observe
// an already-active session.
func (g *Gate) Watch(fn func(*domain.Identity)) func() {
	g.notifyMu.Lock()
	defer g.notifyMu.Unlock()

	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.watchers[id] = fn
	current := g.current
	g.mu.Unlock()

	fn(cloneIdentity(current))

	return func() {
		g.mu.Lock()
		delete(g.watchers, id)
		g.mu.Unlock()
	}
}

// SignedIn records a successful credential exchange. Signing in again, even
// as the same user, counts as a fresh session and notifies watchers.
func (g *Gate) SignedIn(id domain.Identity) {
	g.notifyMu.Lock()
	defer g.notifyMu.Unlock()
	g.set(&id)
}

// SignOut clears the identity. A no-op when already signed out.
func (g *Gate) SignOut() {
	g.notifyMu.Lock()
	defer g.notifyMu.Unlock()
	g.mu.Lock()
	signedIn := g.current != nil
	g.mu.Unlock()
	if !signedIn {
		return
	}
	g.set(nil)
}

// set records the transition and notifies watchers. Callers hold notifyMu.
func (g *Gate) set(id *domain.Identity) {
	g.mu.Lock()
	g.current = cloneIdentity(id)
	fns := make([]func(*domain.Identity), 0, len(g.watchers))
	for _, fn := range g.watchers {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		fn(cloneIdentity(id))
	}
}

func cloneIdentity(id *domain.Identity) *domain.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
