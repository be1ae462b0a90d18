package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maikmano/zentask/domain"
)

// Notice is a dismissible message shown to the user, typically a failed
// write surfacing.
type Notice struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	CreatedAt int64  `json:"createdAt"`
}

// State is the single container for everything the session knows: the
// merged identity, the mirrored collection snapshots and the notice list.
// Mirrors write snapshots in, the router and commands read copies out.
type State struct {
	mu       sync.RWMutex
	identity *domain.Identity
	profile  *domain.Profile
	boards   []domain.Board
	columns  []domain.Column
	tasks    []domain.Task
	notes    []domain.Note
	notices  []Notice
	onChange func()
}

// NewState builds an empty container. onChange fires after every mutation
// and may be nil.
func NewState(onChange func()) *State {
	return &State{onChange: onChange}
}

func (s *State) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Reset drops everything. Called on every identity transition so no data
// from a previous session can leak into the next one.
func (s *State) Reset() {
	s.mu.Lock()
	s.identity = nil
	s.profile = nil
	s.boards = nil
	s.columns = nil
	s.tasks = nil
	s.notes = nil
	s.notices = nil
	s.mu.Unlock()
	s.notify()
}

func (s *State) SetIdentity(id domain.Identity) {
	s.mu.Lock()
	s.identity = &id
	s.mu.Unlock()
	s.notify()
}

// Identity returns the signed-in identity with the profile document merged
// over it, when both exist.
func (s *State) Identity() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return domain.Identity{}, false
	}
	id := *s.identity
	if s.profile != nil {
		id = id.Merge(*s.profile)
	}
	return id, true
}

func (s *State) SetProfile(profiles []domain.Profile) {
	s.mu.Lock()
	if len(profiles) == 0 {
		s.profile = nil
	} else {
		p := profiles[0]
		s.profile = &p
	}
	s.mu.Unlock()
	s.notify()
}

func (s *State) SetBoards(boards []domain.Board) {
	s.mu.Lock()
	s.boards = boards
	s.mu.Unlock()
	s.notify()
}

func (s *State) SetColumns(columns []domain.Column) {
	s.mu.Lock()
	s.columns = columns
	s.mu.Unlock()
	s.notify()
}

func (s *State) SetTasks(tasks []domain.Task) {
	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
	s.notify()
}

func (s *State) SetNotes(notes []domain.Note) {
	s.mu.Lock()
	s.notes = notes
	s.mu.Unlock()
	s.notify()
}

func (s *State) Boards() []domain.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Board, len(s.boards))
	copy(out, s.boards)
	return out
}

func (s *State) Columns() []domain.Column {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Column, len(s.columns))
	copy(out, s.columns)
	return out
}

func (s *State) Tasks() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *State) Notes() []domain.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// PushNotice adds a dismissible notice and returns its id.
func (s *State) PushNotice(message string) string {
	n := Notice{
		ID:        uuid.NewString(),
		Message:   message,
		CreatedAt: time.Now().UnixMilli(),
	}
	s.mu.Lock()
	s.notices = append(s.notices, n)
	s.mu.Unlock()
	s.notify()
	return n.ID
}

// DismissNotice removes a notice. Unknown ids are ignored.
func (s *State) DismissNotice(id string) {
	s.mu.Lock()
	for i, n := range s.notices {
		if n.ID == id {
			s.notices = append(s.notices[:i], s.notices[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

func (s *State) Notices() []Notice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notice, len(s.notices))
	copy(out, s.notices)
	return out
}
