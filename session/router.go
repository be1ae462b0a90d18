package session

import (
	"sync"

	"github.com/maikmano/zentask/domain"
)

// ViewKind names a top-level screen.
type ViewKind string

const (
	ViewDashboard ViewKind = "dashboard"
	ViewNotes     ViewKind = "notes"
	ViewInsights  ViewKind = "insights"
	ViewBoard     ViewKind = "board"
)

// View is the current navigation target. BoardID is set only for board
// views.
type View struct {
	Kind    ViewKind `json:"kind"`
	BoardID string   `json:"boardId,omitempty"`
}

// Router tracks which screen the user is on. Transitions are direct user
// selections with no guards; a board view whose board no longer exists
// simply resolves to nothing.
type Router struct {
	mu     sync.RWMutex
	view   View
	state  *State
	notify func()
}

func NewRouter(state *State, notify func()) *Router {
	return &Router{view: View{Kind: ViewDashboard}, state: state, notify: notify}
}

func (r *Router) emit() {
	if r.notify != nil {
		r.notify()
	}
}

func (r *Router) Current() View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view
}

func (r *Router) ShowDashboard() { r.set(View{Kind: ViewDashboard}) }
func (r *Router) ShowNotes()     { r.set(View{Kind: ViewNotes}) }
func (r *Router) ShowInsights()  { r.set(View{Kind: ViewInsights}) }

func (r *Router) ShowBoard(id string) { r.set(View{Kind: ViewBoard, BoardID: id}) }

func (r *Router) set(v View) {
	r.mu.Lock()
	r.view = v
	r.mu.Unlock()
	r.emit()
}

// Reset returns to the initial dashboard view. Called on identity
// transitions.
func (r *Router) Reset() {
	r.set(View{Kind: ViewDashboard})
}

// ActiveBoard resolves the current view against the live board snapshot.
// It returns false when the view is not a board view or the board is gone.
func (r *Router) ActiveBoard() (domain.Board, bool) {
	v := r.Current()
	if v.Kind != ViewBoard {
		return domain.Board{}, false
	}
	for _, b := range r.state.Boards() {
		if b.ID == v.BoardID {
			return b, true
		}
	}
	return domain.Board{}, false
}

// BoardColumns lists the columns of the active board, empty when the board
// has none.
func (r *Router) BoardColumns() []domain.Column {
	board, ok := r.ActiveBoard()
	if !ok {
		return nil
	}
	var out []domain.Column
	for _, col := range r.state.Columns() {
		if col.BoardID == board.ID {
			out = append(out, col)
		}
	}
	return out
}
