package command

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maikmano/zentask/domain"
)

// ErrNotSignedIn indicates a write was attempted without an active session.
var ErrNotSignedIn = errors.New("not signed in")

// ErrTitleRequired indicates a title was empty or whitespace-only; the
// command is rejected before any write is issued.
var ErrTitleRequired = errors.New("title required")

// ErrConfirmationRequired indicates a destructive command was issued
// without the caller confirming it first.
var ErrConfirmationRequired = errors.New("confirmation required")

// ErrTaskNotFound indicates the referenced task is absent from the local
// snapshot.
var ErrTaskNotFound = errors.New("task not found")

// Store is the write surface of the document store. Creates return the id
// of the new document; updates carry partial field sets and leave the rest
// of the document untouched.
type Store interface {
	Create(ctx context.Context, collection, userID string, fields map[string]any) (string, error)
	Update(ctx context.Context, collection, userID, id string, fields map[string]any) error
	Upsert(ctx context.Context, collection, userID, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, userID, id string) error
}

// Reader exposes the current local snapshots commands consult before
// cascading deletes and ordering new columns. Commands only ever read
// these; the mirrors are the sole writers.
type Reader interface {
	Columns() []domain.Column
	Tasks() []domain.Task
}

// Session reports the signed-in identity, if any.
type Session interface {
	Current() (domain.Identity, bool)
}

// Commands issues the user-triggered writes. Every write is synchronous and
// acknowledged; failures are returned to the caller, never retried.
type Commands struct {
	log     *logrus.Entry
	store   Store
	session Session
	state   Reader
	now     func() int64
}

func New(log *logrus.Entry, store Store, session Session, state Reader) *Commands {
	return &Commands{
		log:     log,
		store:   store,
		session: session,
		state:   state,
		now:     func() int64 { return time.Now().UnixMilli() },
	}
}

func (c *Commands) userID() (string, error) {
	id, ok := c.session.Current()
	if !ok {
		return "", ErrNotSignedIn
	}
	return id.UID, nil
}
