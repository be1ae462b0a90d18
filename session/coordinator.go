package session

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/maikmano/zentask/command"
	"github.com/maikmano/zentask/domain"
	"github.com/maikmano/zentask/identity"
	"github.com/maikmano/zentask/mirror"
)

// Backend is the full document-store surface the session needs: snapshot
// reads for the mirrors and writes for the bootstrapper.
type Backend interface {
	mirror.Fetcher
	command.Store
}

// Coordinator ties the session together: it watches the identity gate and,
// on every transition, tears down the previous session's mirrors and
// resets the state container, the router and the onboarding guard before
// starting fresh ones for the new identity.
type Coordinator struct {
	log     *logrus.Entry
	rc      *redis.Client
	channel string
	backend Backend
	gate    *identity.Gate
	state   *State
	router  *Router
	boot    *Bootstrapper

	// transMu serializes transitions end to end so a sign-out can never
	// interleave with a sign-in and leave its mirrors running.
	transMu sync.Mutex

	mu          sync.Mutex
	started     bool
	mirrors     *mirror.Set
	cancelWatch func()
}

func NewCoordinator(
	log *logrus.Entry,
	rc *redis.Client,
	channel string,
	backend Backend,
	gate *identity.Gate,
	state *State,
	router *Router,
	boot *Bootstrapper,
) *Coordinator {
	return &Coordinator{
		log:     log,
		rc:      rc,
		channel: channel,
		backend: backend,
		gate:    gate,
		state:   state,
		router:  router,
		boot:    boot,
	}
}

// Start begins watching the gate. The watcher fires immediately with the
// current state, so a signed-in identity at startup gets its mirrors
// right away.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	// Watch delivers the current identity synchronously, and the callback
	// takes c.mu, so the watcher is registered without holding it.
	cancel := c.gate.Watch(func(id *domain.Identity) {
		c.transition(ctx, id)
	})

	c.mu.Lock()
	if !c.started {
		// Stopped while registering.
		c.mu.Unlock()
		cancel()
		return
	}
	c.cancelWatch = cancel
	c.mu.Unlock()
}

// Stop tears the session down entirely.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	cancel := c.cancelWatch
	c.cancelWatch = nil
	c.started = false
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.transition(context.Background(), nil)
}

func (c *Coordinator) transition(ctx context.Context, id *domain.Identity) {
	c.transMu.Lock()
	defer c.transMu.Unlock()

	c.mu.Lock()
	old := c.mirrors
	c.mirrors = nil
	c.mu.Unlock()
	if old != nil {
		old.Stop()
	}
	c.state.Reset()
	c.router.Reset()
	c.boot.Reset()

	if id == nil {
		c.log.Info("session closed")
		return
	}
	c.log.WithField("userId", id.UID).Info("session opened")
	c.state.SetIdentity(*id)

	userID := id.UID
	set := mirror.NewSet(c.log, c.rc, c.channel, c.backend, userID, mirror.Observer{
		Boards: func(boards []domain.Board) {
			c.state.SetBoards(boards)
			c.boot.MaybeSeed(ctx, userID, boards)
		},
		Columns: c.state.SetColumns,
		Tasks:   c.state.SetTasks,
		Notes:   c.state.SetNotes,
		Profile: c.state.SetProfile,
	})
	c.mu.Lock()
	c.mirrors = set
	c.mu.Unlock()
	set.Start(ctx)
}

// ActiveMirrors counts the live collection subscriptions.
func (c *Coordinator) ActiveMirrors() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mirrors == nil {
		return 0
	}
	return c.mirrors.Active()
}
