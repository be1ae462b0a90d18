package mirror

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/maikmano/zentask/domain"
)

// Mirror keeps a local snapshot of one remote collection, scoped to a
// single user, up to date. It subscribes to the change channel before the
// initial fetch so no update published in between can be missed, then
// refetches the full filtered snapshot whenever a change for its
// collection and user arrives.
type Mirror[T any] struct {
	log        *logrus.Entry
	rc         *redis.Client
	channel    string
	collection string
	userID     string
	fetch      func(ctx context.Context, userID string) ([]T, error)
	onChange   func([]T)

	mu       sync.Mutex
	snapshot []T
	cancel   context.CancelFunc
	done     chan struct{}
}

func newMirror[T any](
	log *logrus.Entry,
	rc *redis.Client,
	channel, collection, userID string,
	fetch func(ctx context.Context, userID string) ([]T, error),
	onChange func([]T),
) *Mirror[T] {
	return &Mirror[T]{
		log:        log.WithField("collection", collection),
		rc:         rc,
		channel:    channel,
		collection: collection,
		userID:     userID,
		fetch:      fetch,
		onChange:   onChange,
	}
}

// Start launches the mirror's listener. It is a no-op when already running.
func (m *Mirror[T]) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	done := make(chan struct{})
	m.done = done
	go m.run(runCtx, done)
}

// Stop tears the mirror down and waits for its goroutine to exit, so a
// caller observing Stop's return knows no further snapshot updates will
// be delivered.
func (m *Mirror[T]) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.done = nil
	m.snapshot = nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Active reports whether the mirror is currently listening.
func (m *Mirror[T]) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// Snapshot returns a copy of the current local state.
func (m *Mirror[T]) Snapshot() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]T, len(m.snapshot))
	copy(out, m.snapshot)
	return out
}

func (m *Mirror[T]) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		sub := m.rc.Subscribe(ctx, m.channel)
		ch := sub.Channel()
		m.refresh(ctx)
	receive:
		for {
			select {
			case <-ctx.Done():
				sub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break receive
				}
				var ev changeEvent
				if err := decodeChange(msg.Payload, &ev); err != nil {
					m.log.Errorf("unable to parse update: %v", err)
					continue
				}
				if ev.Collection != m.collection || ev.UserID != m.userID {
					continue
				}
				m.refresh(ctx)
			}
		}
		sub.Close()
		if ctx.Err() != nil {
			return
		}
		m.log.Error("pubsub channel closed, reconnecting")
		time.Sleep(time.Second)
	}
}

func (m *Mirror[T]) refresh(ctx context.Context) {
	items, err := m.fetch(ctx, m.userID)
	if err != nil {
		if ctx.Err() == nil {
			m.log.Errorf("fetch snapshot: %v", err)
		}
		return
	}
	m.mu.Lock()
	m.snapshot = items
	notify := m.onChange
	m.mu.Unlock()
	if notify != nil {
		notify(items)
	}
}

// Fetcher loads full per-user snapshots of the remote collections.
type Fetcher interface {
	ListBoards(ctx context.Context, userID string) ([]domain.Board, error)
	ListColumns(ctx context.Context, userID string) ([]domain.Column, error)
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	ListNotes(ctx context.Context, userID string) ([]domain.Note, error)
	ListProfile(ctx context.Context, userID string) ([]domain.Profile, error)
}

// Observer receives the fresh snapshot after each collection refresh.
type Observer struct {
	Boards  func([]domain.Board)
	Columns func([]domain.Column)
	Tasks   func([]domain.Task)
	Notes   func([]domain.Note)
	Profile func([]domain.Profile)
}

// Set bundles the per-collection mirrors of one signed-in session.
type Set struct {
	Boards  *Mirror[domain.Board]
	Columns *Mirror[domain.Column]
	Tasks   *Mirror[domain.Task]
	Notes   *Mirror[domain.Note]
	Profile *Mirror[domain.Profile]
}

// NewSet builds the mirrors for a user. Nothing is started yet.
func NewSet(log *logrus.Entry, rc *redis.Client, channel string, store Fetcher, userID string, obs Observer) *Set {
	return &Set{
		Boards:  newMirror(log, rc, channel, domain.CollectionBoards, userID, store.ListBoards, obs.Boards),
		Columns: newMirror(log, rc, channel, domain.CollectionColumns, userID, store.ListColumns, obs.Columns),
		Tasks:   newMirror(log, rc, channel, domain.CollectionTasks, userID, store.ListTasks, obs.Tasks),
		Notes:   newMirror(log, rc, channel, domain.CollectionNotes, userID, store.ListNotes, obs.Notes),
		Profile: newMirror(log, rc, channel, domain.CollectionUsers, userID, store.ListProfile, obs.Profile),
	}
}

// Start begins listening on every mirror.
func (s *Set) Start(ctx context.Context) {
	s.Boards.Start(ctx)
	s.Columns.Start(ctx)
	s.Tasks.Start(ctx)
	s.Notes.Start(ctx)
	s.Profile.Start(ctx)
}

// Stop tears every mirror down and blocks until all listeners exited.
func (s *Set) Stop() {
	s.Boards.Stop()
	s.Columns.Stop()
	s.Tasks.Stop()
	s.Notes.Stop()
	s.Profile.Stop()
}

// Active counts the mirrors that are still listening.
func (s *Set) Active() int {
	n := 0
	for _, active := range []bool{
		s.Boards.Active(),
		s.Columns.Active(),
		s.Tasks.Active(),
		s.Notes.Active(),
		s.Profile.Active(),
	} {
		if active {
			n++
		}
	}
	return n
}
