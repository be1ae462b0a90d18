package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/maikmano/zentask/command"
	"github.com/maikmano/zentask/domain"
	"github.com/maikmano/zentask/identity"
	"github.com/maikmano/zentask/session"
	"github.com/maikmano/zentask/updater"
)

// AuthProvider exchanges credentials for a verified identity.
type AuthProvider interface {
	SignIn(ctx context.Context, email, password string) (domain.Identity, error)
	SignUp(ctx context.Context, email, password string) (domain.Identity, error)
}

// InsightService produces best-effort generated text; it never fails.
type InsightService interface {
	DailyInsights(ctx context.Context, tasks []domain.Task, notes []domain.Note) string
	RefineTask(ctx context.Context, text string) string
}

// Server is the loopback gateway the renderer talks to.
type Server struct {
	log        *log.Logger
	token      string
	shellToken string
	gate       *identity.Gate
	provider   AuthProvider
	state      *session.State
	router     *session.Router
	commands   *command.Commands
	insights   InsightService
	updates    *updater.Manager
	broker     *updateBroker
}

type Config struct {
	Log        *log.Logger
	Token      string
	ShellToken string
	Gate       *identity.Gate
	Provider   AuthProvider
	State      *session.State
	Router     *session.Router
	Commands   *command.Commands
	Insights   InsightService
	Updates    *updater.Manager
}

func New(cfg Config) *Server {
	return &Server{
		log:        cfg.Log,
		token:      cfg.Token,
		shellToken: cfg.ShellToken,
		gate:       cfg.Gate,
		provider:   cfg.Provider,
		state:      cfg.State,
		router:     cfg.Router,
		commands:   cfg.Commands,
		insights:   cfg.Insights,
		updates:    cfg.Updates,
		broker:     newUpdateBroker(),
	}
}

// NotifyChanged nudges every connected state stream to resend the current
// state. Wire it as the change callback of the session state, the router
// and the update manager.
func (s *Server) NotifyChanged() {
	s.broker.notify()
}

// Register wires up all gateway routes on the given Echo instance.
func (s *Server) Register(e *echo.Echo) {
	g := e.Group("", s.requireToken)
	g.POST("/api/session/signin", s.signIn)
	g.POST("/api/session/signup", s.signUp)
	g.POST("/api/session/signout", s.signOut)
	g.POST("/api/commands", s.postCommands)
	g.GET("/api/stream", s.streamState)
	g.GET("/api/insights", s.getInsights)
	g.POST("/api/tasks/refine", s.refineTask)
	g.POST("/api/update/download", s.downloadUpdate)
	g.POST("/api/update/install", s.installUpdate)

	e.POST("/internal/update-status", s.updateStatus)
	e.GET("/healthz", s.healthz)
}

func (s *Server) healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}
