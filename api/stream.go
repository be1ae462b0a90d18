package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/maikmano/zentask/domain"
	"github.com/maikmano/zentask/session"
	"github.com/maikmano/zentask/updater"
)

type updateBroker struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newUpdateBroker() *updateBroker {
	return &updateBroker{subs: make(map[chan struct{}]struct{})}
}

func (b *updateBroker) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *updateBroker) unsubscribe(ch chan struct{}) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

func (b *updateBroker) notify() {
	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	b.mu.Unlock()
}

// statePayload is the full session state the renderer renders from. The
// stream always sends the whole thing; the renderer never patches deltas.
type statePayload struct {
	Identity    *domain.Identity `json:"identity"`
	View        session.View     `json:"view"`
	ActiveBoard *domain.Board    `json:"activeBoard,omitempty"`
	Boards      []domain.Board   `json:"boards"`
	Columns     []domain.Column  `json:"columns"`
	Tasks       []domain.Task    `json:"tasks"`
	Notes       []domain.Note    `json:"notes"`
	Notices     []session.Notice `json:"notices"`
	Update      updater.State    `json:"update"`
}

func (s *Server) currentState() statePayload {
	p := statePayload{
		View:    s.router.Current(),
		Boards:  s.state.Boards(),
		Columns: s.state.Columns(),
		Tasks:   s.state.Tasks(),
		Notes:   s.state.Notes(),
		Notices: s.state.Notices(),
		Update:  s.updates.Current(),
	}
	if id, ok := s.state.Identity(); ok {
		p.Identity = &id
	}
	if board, ok := s.router.ActiveBoard(); ok {
		p.ActiveBoard = &board
	}
	return p
}

// streamState pushes the current state on connect and again after every
// change notification.
func (s *Server) streamState(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return c.String(http.StatusInternalServerError, "stream unsupported")
	}
	ctx := c.Request().Context()
	ch := s.broker.subscribe()
	defer s.broker.unsubscribe(ch)
	for {
		data, err := json.Marshal(s.currentState())
		if err != nil {
			c.Logger().Error(err)
			return err
		}
		if _, err := c.Response().Write([]byte("data: ")); err != nil {
			return err
		}
		if _, err := c.Response().Write(data); err != nil {
			return err
		}
		if _, err := c.Response().Write([]byte("\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
			continue
		}
	}
}
