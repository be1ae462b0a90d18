package updater

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// EventType names a status event pushed by the desktop shell.
type EventType string

const (
	EventChecking     EventType = "checking-for-update"
	EventAvailable    EventType = "update-available"
	EventNotAvailable EventType = "update-not-available"
	EventProgress     EventType = "download-progress"
	EventDownloaded   EventType = "update-downloaded"
	EventError        EventType = "update-error"
)

// Event is one shell-side status push.
type Event struct {
	Event   EventType `json:"event"`
	Version string    `json:"version,omitempty"`
	Percent float64   `json:"percent,omitempty"`
	Message string    `json:"message,omitempty"`
}

// State is what the UI renders about updates.
type State struct {
	Available   bool   `json:"available"`
	Version     string `json:"version,omitempty"`
	Downloading bool   `json:"downloading"`
	Progress    int    `json:"progress"`
	Ready       bool   `json:"ready"`
}

// Shell issues the two update commands to the desktop shell.
type Shell interface {
	DownloadUpdate(ctx context.Context) error
	InstallUpdate(ctx context.Context) error
}

// Manager folds shell events into the update state machine:
// idle → available → downloading → downloaded. Errors are logged, reset
// the download state and leave the user to retry manually.
type Manager struct {
	log   *logrus.Entry
	shell Shell

	mu       sync.Mutex
	state    State
	onChange func()
}

func NewManager(log *logrus.Entry, shell Shell, onChange func()) *Manager {
	return &Manager{log: log, shell: shell, onChange: onChange}
}

func (m *Manager) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Apply folds one shell event into the state.
func (m *Manager) Apply(ev Event) {
	m.mu.Lock()
	switch ev.Event {
	case EventChecking:
		// transient, nothing to show
	case EventAvailable:
		m.state.Available = true
		m.state.Version = ev.Version
	case EventNotAvailable:
		m.state = State{}
	case EventProgress:
		m.state.Downloading = true
		m.state.Progress = int(ev.Percent + 0.5)
	case EventDownloaded:
		m.state.Downloading = false
		m.state.Ready = true
	case EventError:
		m.log.Errorf("update error: %s", ev.Message)
		m.state.Downloading = false
		m.state.Progress = 0
	default:
		m.log.Warnf("unknown update event %q", ev.Event)
	}
	notify := m.onChange
	m.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// Download asks the shell to start downloading the pending update.
func (m *Manager) Download(ctx context.Context) error {
	m.mu.Lock()
	m.state.Downloading = true
	m.mu.Unlock()
	if err := m.shell.DownloadUpdate(ctx); err != nil {
		m.Apply(Event{Event: EventError, Message: err.Error()})
		return err
	}
	return nil
}

// Install asks the shell to restart into the downloaded update.
func (m *Manager) Install(ctx context.Context) error {
	return m.shell.InstallUpdate(ctx)
}
