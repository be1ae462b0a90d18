package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maikmano/zentask/command"
	"github.com/maikmano/zentask/domain"
	"github.com/maikmano/zentask/identity"
	"github.com/maikmano/zentask/session"
	"github.com/maikmano/zentask/updater"
)

const testToken = "ui-token"

type recordedWrite struct {
	kind       string
	collection string
	id         string
	fields     map[string]any
}

type fakeStore struct {
	writes []recordedWrite
	nextID int
	fail   bool
}

func (f *fakeStore) Create(_ context.Context, collection, _ string, fields map[string]any) (string, error) {
	if f.fail {
		return "", fmt.Errorf("store down")
	}
	f.nextID++
	id := fmt.Sprintf("id-%d", f.nextID)
	f.writes = append(f.writes, recordedWrite{kind: "create", collection: collection, id: id, fields: fields})
	return id, nil
}

func (f *fakeStore) Update(_ context.Context, collection, _ string, id string, fields map[string]any) error {
	if f.fail {
		return fmt.Errorf("store down")
	}
	f.writes = append(f.writes, recordedWrite{kind: "update", collection: collection, id: id, fields: fields})
	return nil
}

func (f *fakeStore) Upsert(_ context.Context, collection, _ string, id string, fields map[string]any) error {
	f.writes = append(f.writes, recordedWrite{kind: "upsert", collection: collection, id: id, fields: fields})
	return nil
}

func (f *fakeStore) Delete(_ context.Context, collection, _ string, id string) error {
	if f.fail {
		return fmt.Errorf("store down")
	}
	f.writes = append(f.writes, recordedWrite{kind: "delete", collection: collection, id: id})
	return nil
}

type fakeProvider struct {
	identity domain.Identity
	err      error
}

func (f fakeProvider) SignIn(context.Context, string, string) (domain.Identity, error) {
	return f.identity, f.err
}

func (f fakeProvider) SignUp(context.Context, string, string) (domain.Identity, error) {
	return f.identity, f.err
}

type fakeInsights struct{}

func (fakeInsights) DailyInsights(context.Context, []domain.Task, []domain.Note) string {
	return "Foque em menos coisas."
}

func (fakeInsights) RefineTask(_ context.Context, text string) string {
	return "refinado: " + text
}

type harness struct {
	server *Server
	echo   *echo.Echo
	store  *fakeStore
	gate   *identity.Gate
	state  *session.State
}

func newHarness(t *testing.T, provider AuthProvider) *harness {
	t.Helper()
	logger := log.New()
	logger.SetLevel(log.PanicLevel)

	store := &fakeStore{}
	gate := identity.NewGate()
	state := session.NewState(nil)
	router := session.NewRouter(state, nil)
	cmds := command.New(log.NewEntry(logger), store, gate, state)
	updates := updater.NewManager(log.NewEntry(logger), updater.NopShell{}, nil)

	srv := New(Config{
		Log:        logger,
		Token:      testToken,
		ShellToken: "shell-token",
		Gate:       gate,
		Provider:   provider,
		State:      state,
		Router:     router,
		Commands:   cmds,
		Insights:   fakeInsights{},
		Updates:    updates,
	})
	e := echo.New()
	srv.Register(e)
	return &harness{server: srv, echo: e, store: store, gate: gate, state: state}
}

func (h *harness) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+testToken)
	rec := httptest.NewRecorder()
	h.echo.ServeHTTP(rec, req)
	return rec
}

func TestRequireTokenRejectsBadToken(t *testing.T) {
	h := newHarness(t, fakeProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/commands", strings.NewReader("[]"))
	req.Header.Set(echo.HeaderAuthorization, "Bearer wrong")
	rec := httptest.NewRecorder()
	h.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/commands", strings.NewReader("[]"))
	rec = httptest.NewRecorder()
	h.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignInOpensSession(t *testing.T) {
	h := newHarness(t, fakeProvider{identity: domain.Identity{UID: "u1", Email: "a@b.c"}})

	rec := h.do(http.MethodPost, "/api/session/signin", `{"email":"a@b.c","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.Identity.UID)

	id, ok := h.gate.Current()
	require.True(t, ok)
	assert.Equal(t, "u1", id.UID)
}

func TestSignInInvalidCredentials(t *testing.T) {
	h := newHarness(t, fakeProvider{err: &identity.AuthError{Message: "invalid email or password"}})

	rec := h.do(http.MethodPost, "/api/session/signin", `{"email":"a@b.c","password":"pw"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid email or password", resp.Error)
	_, ok := h.gate.Current()
	assert.False(t, ok)
}

func TestSignInProviderFailureMapsToBadGateway(t *testing.T) {
	h := newHarness(t, fakeProvider{err: fmt.Errorf("identity provider unavailable: status 500")})

	rec := h.do(http.MethodPost, "/api/session/signin", `{"email":"a@b.c","password":"pw"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	_, ok := h.gate.Current()
	assert.False(t, ok)
}

func TestSignOutClosesSession(t *testing.T) {
	h := newHarness(t, fakeProvider{identity: domain.Identity{UID: "u1"}})
	h.gate.SignedIn(domain.Identity{UID: "u1"})

	rec := h.do(http.MethodPost, "/api/session/signout", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := h.gate.Current()
	assert.False(t, ok)
}

func TestPostCommandsCreateBoardSwitchesView(t *testing.T) {
	h := newHarness(t, fakeProvider{})
	h.gate.SignedIn(domain.Identity{UID: "u1"})

	rec := h.do(http.MethodPost, "/api/commands", `[{"type":"createBoard","title":"Launch Plan"}]`)
	require.Equal(t, http.StatusOK, rec.Code)

	var results []commandResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	require.True(t, results[0].OK)

	require.Len(t, h.store.writes, 4, "one board create plus three columns")
	view := h.server.router.Current()
	assert.Equal(t, session.ViewBoard, view.Kind)
	assert.Equal(t, results[0].ID, view.BoardID)
}

func TestPostCommandsRejectsUnknownFields(t *testing.T) {
	h := newHarness(t, fakeProvider{})
	rec := h.do(http.MethodPost, "/api/commands", `[{"type":"createBoard","bogus":true}]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostCommandsLocalRejectionLeavesNoNotice(t *testing.T) {
	h := newHarness(t, fakeProvider{})
	h.gate.SignedIn(domain.Identity{UID: "u1"})

	rec := h.do(http.MethodPost, "/api/commands", `[{"type":"createBoard","title":"   "}]`)
	require.Equal(t, http.StatusOK, rec.Code)

	var results []commandResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.Equal(t, command.ErrTitleRequired.Error(), results[0].Error)
	assert.Empty(t, h.store.writes)
	assert.Empty(t, h.state.Notices(), "inline rejection, not a system notice")
}

func TestPostCommandsWriteFailureBecomesNotice(t *testing.T) {
	h := newHarness(t, fakeProvider{})
	h.gate.SignedIn(domain.Identity{UID: "u1"})
	h.store.fail = true

	rec := h.do(http.MethodPost, "/api/commands", `[{"type":"createBoard","title":"Launch Plan"}]`)
	require.Equal(t, http.StatusOK, rec.Code)

	var results []commandResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	require.Len(t, h.state.Notices(), 1)
	assert.Equal(t, "store down", h.state.Notices()[0].Message)
}

func TestPostCommandsBatchKeepsOrder(t *testing.T) {
	h := newHarness(t, fakeProvider{})
	h.gate.SignedIn(domain.Identity{UID: "u1"})
	h.state.SetTasks([]domain.Task{
		{ID: "t1", ColumnID: "c1"},
		{ID: "t2", ColumnID: "c1"},
	})

	rec := h.do(http.MethodPost, "/api/commands",
		`[{"type":"deleteColumn","id":"c1","confirmed":true},{"type":"moveTask","id":"t9","columnId":"c2"}]`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, h.store.writes, 4)
	assert.Equal(t, recordedWrite{kind: "delete", collection: domain.CollectionTasks, id: "t1"}, h.store.writes[0])
	assert.Equal(t, recordedWrite{kind: "delete", collection: domain.CollectionTasks, id: "t2"}, h.store.writes[1])
	assert.Equal(t, recordedWrite{kind: "delete", collection: domain.CollectionColumns, id: "c1"}, h.store.writes[2])
	assert.Equal(t, "update", h.store.writes[3].kind)
	assert.Equal(t, map[string]any{"columnId": "c2"}, h.store.writes[3].fields)
}

func TestPostCommandsToggleTag(t *testing.T) {
	h := newHarness(t, fakeProvider{})
	h.gate.SignedIn(domain.Identity{UID: "u1"})
	h.state.SetTasks([]domain.Task{
		{ID: "t1", ColumnID: "c1", Tags: []domain.TaskTag{{Name: "Urgente", Color: "#f43f5e"}}},
	})

	rec := h.do(http.MethodPost, "/api/commands",
		`[{"type":"toggleTag","id":"t1","tags":[{"name":"Urgente","color":"#f43f5e"}]}]`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, h.store.writes, 1)
	assert.Equal(t, "update", h.store.writes[0].kind)
	assert.Equal(t, map[string]any{"tags": []domain.TaskTag{}}, h.store.writes[0].fields)

	// toggling without exactly one tag is rejected inline
	rec = h.do(http.MethodPost, "/api/commands", `[{"type":"toggleTag","id":"t1"}]`)
	require.Equal(t, http.StatusOK, rec.Code)
	var results []commandResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.False(t, results[0].OK)
	assert.Equal(t, errBadTagToggle.Error(), results[0].Error)
	assert.Empty(t, h.state.Notices())
}

func TestDismissNoticeCommand(t *testing.T) {
	h := newHarness(t, fakeProvider{})
	h.gate.SignedIn(domain.Identity{UID: "u1"})
	noticeID := h.state.PushNotice("algo falhou")

	rec := h.do(http.MethodPost, "/api/commands",
		`[{"type":"dismissNotice","noticeId":"`+noticeID+`"}]`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, h.state.Notices())
}

func TestGetInsights(t *testing.T) {
	h := newHarness(t, fakeProvider{})

	rec := h.do(http.MethodGet, "/api/insights", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp insightsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Foque em menos coisas.", resp.Text)
}

func TestRefineTask(t *testing.T) {
	h := newHarness(t, fakeProvider{})

	rec := h.do(http.MethodPost, "/api/tasks/refine", `{"text":"ver contrato"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp insightsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "refinado: ver contrato", resp.Text)
}

func TestUpdateStatusRequiresShellToken(t *testing.T) {
	h := newHarness(t, fakeProvider{})

	req := httptest.NewRequest(http.MethodPost, "/internal/update-status",
		strings.NewReader(`{"event":"update-available","version":"1.4.0"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	h.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/internal/update-status",
		strings.NewReader(`{"event":"update-available","version":"1.4.0"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer shell-token")
	rec = httptest.NewRecorder()
	h.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	got := h.server.updates.Current()
	assert.True(t, got.Available)
	assert.Equal(t, "1.4.0", got.Version)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, fakeProvider{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
