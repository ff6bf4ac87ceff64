package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/urna-api/internal/audit"
	"github.com/gravadigital/urna-api/internal/backup"
	"github.com/gravadigital/urna-api/internal/config"
	domain "github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/domain/election"
	"github.com/gravadigital/urna-api/internal/domain/profile"
	"github.com/gravadigital/urna-api/internal/lifecycle"
	"github.com/gravadigital/urna-api/internal/services"
	"github.com/gravadigital/urna-api/internal/session"
	"github.com/gravadigital/urna-api/internal/storage/memory"
	"github.com/gravadigital/urna-api/internal/store"
)

func newRouter(t *testing.T) (*store.Store, *gin.Engine) {
	t.Helper()
	s := store.New(memory.NewGateway(), profile.DefaultSuperAdmin("superadmin", "superadmin123"))
	require.NoError(t, s.Load(context.Background()))
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	rec := audit.NewRecorder(s)
	cfg := &config.Config{}
	cfg.Server.GinMode = gin.TestMode

	srv := New(cfg, Deps{
		Store:     s,
		Services:  services.New(s, rec),
		Lifecycle: lifecycle.NewController(s, rec, 0),
		Recorder:  rec,
		Resolver:  session.NewResolver(s, rec),
		Tokens:    session.NewTokens("test-secret", 0),
		Backups:   backup.NewController(s, rec, nil),
	})
	return s, srv.Router()
}

func call(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func reason(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[struct {
		Reason string `json:"reason"`
	}](t, w).Reason
}

func login(t *testing.T, router *gin.Engine, id, password string) string {
	t.Helper()
	w := call(t, router, http.MethodPost, "/api/session/login", "", session.Credentials{LoginID: id, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[struct {
		Token string `json:"token"`
	}](t, w).Token
}

func TestPing(t *testing.T) {
	_, router := newRouter(t)

	w := call(t, router, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestLoginNeedsWorkspaceForScopedRoles(t *testing.T) {
	_, router := newRouter(t)

	w := call(t, router, http.MethodPost, "/api/session/login", "", session.Credentials{LoginID: "head", Password: "pass1234"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "select_workspace", reason(t, w))

	w = call(t, router, http.MethodPost, "/api/session/login", "", session.Credentials{LoginID: "superadmin", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestElectionDayFlow(t *testing.T) {
	s, router := newRouter(t)
	super := login(t, router, "superadmin", "superadmin123")

	// Super Admin prepares a workspace and its admin
	w := call(t, router, http.MethodPost, "/api/super/workspaces", super, services.WorkspaceRequest{Name: "North School"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	workspaceID := decode[struct {
		ID string `json:"id"`
	}](t, w).ID

	w = call(t, router, http.MethodPut, "/api/super/workspaces/"+workspaceID+"/admin", super,
		services.ProfileRequest{ID: "head", Name: "Head Teacher", Password: "pass1234"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "pass1234")

	w = call(t, router, http.MethodPost, "/api/workspaces/select", "", map[string]string{"workspace_id": workspaceID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Admin builds the roster
	admin := login(t, router, "head", "pass1234")

	w = call(t, router, http.MethodPost, "/api/admin/positions", admin,
		services.PositionRequest{Name: "Head Boy", MaxVotes: 1, Type: election.PositionGeneral})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	position := decode[election.Position](t, w)

	w = call(t, router, http.MethodPost, "/api/admin/candidates", admin, services.CandidateRequest{Name: "Asha", PositionID: position.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	candidate := decode[election.Candidate](t, w)

	w = call(t, router, http.MethodPost, "/api/admin/voters", admin, services.VoterRequest{Name: "Ravi", Class: "10", RollNo: "7"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	voter := decode[election.Voter](t, w)

	w = call(t, router, http.MethodPost, "/api/session/login", "", session.Credentials{LoginID: voter.ID, Password: "7"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "election_not_in_progress", reason(t, w))

	w = call(t, router, http.MethodPost, "/api/admin/election/start", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	started := decode[struct {
		Status           election.Status `json:"status"`
		RemainingSeconds *int64          `json:"remaining_seconds"`
	}](t, w)
	assert.Equal(t, election.StatusInProgress, started.Status)
	require.NotNil(t, started.RemainingSeconds)
	assert.Positive(t, *started.RemainingSeconds)

	// Voter casts a ballot
	ballotToken := login(t, router, voter.ID, "7")
	w = call(t, router, http.MethodGet, "/api/ballot", ballotToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ballot := decode[services.Ballot](t, w)
	require.Len(t, ballot.Positions, 1)

	w = call(t, router, http.MethodPost, "/api/ballot", ballotToken, map[string]any{
		"selections": map[string][]int{strconv.Itoa(position.ID): {candidate.ID}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = call(t, router, http.MethodPost, "/api/ballot", ballotToken, map[string]any{
		"selections": map[string][]int{strconv.Itoa(position.ID): {candidate.ID}},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_voted", reason(t, w))

	w = call(t, router, http.MethodPost, "/api/session/login", "", session.Credentials{LoginID: voter.ID, Password: "7"})
	assert.Equal(t, "already_voted", reason(t, w))

	// Results stay private until the Admin publishes them
	w = call(t, router, http.MethodGet, "/api/results", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = call(t, router, http.MethodPut, "/api/admin/election/results", admin, map[string]bool{"published": true})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "results_locked", reason(t, w))

	require.Equal(t, http.StatusOK, call(t, router, http.MethodPost, "/api/admin/election/end", admin, nil).Code)
	require.Equal(t, http.StatusOK, call(t, router, http.MethodPut, "/api/admin/election/results", admin, map[string]bool{"published": true}).Code)

	w = call(t, router, http.MethodGet, "/api/results", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	results := decode[services.Results](t, w)
	require.Len(t, results.Positions, 1)
	assert.Equal(t, []int{candidate.ID}, results.Positions[0].Winners)
	assert.Equal(t, 1, results.Turnout.Voted)

	// Journals
	w = call(t, router, http.MethodGet, "/api/admin/audit?action=VOTE_CAST", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]domain.Entry](t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, voter.ID, entries[0].Actor.ID)

	w = call(t, router, http.MethodGet, "/api/super/audit", super, nil)
	require.Equal(t, http.StatusOK, w.Code)
	global := decode[[]domain.Entry](t, w)
	require.NotEmpty(t, global)
	assert.Equal(t, domain.ActionAdminProfileSet, global[0].Action)

	data, err := s.Working()
	require.NoError(t, err)
	assert.Equal(t, election.StatusEnded, data.ElectionStatus)
}

func TestRoleGates(t *testing.T) {
	s, router := newRouter(t)
	super := login(t, router, "superadmin", "superadmin123")

	w := call(t, router, http.MethodPost, "/api/super/workspaces", super, services.WorkspaceRequest{Name: "North"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[struct {
		ID string `json:"id"`
	}](t, w).ID
	require.Equal(t, http.StatusOK, call(t, router, http.MethodPut, "/api/super/workspaces/"+id+"/admin", super,
		services.ProfileRequest{ID: "head", Name: "Head", Password: "pass1234"}).Code)
	require.NoError(t, s.SelectWorkspace(id))
	admin := login(t, router, "head", "pass1234")

	assert.Equal(t, http.StatusUnauthorized, call(t, router, http.MethodGet, "/api/admin/positions", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, call(t, router, http.MethodGet, "/api/super/workspaces", admin, nil).Code)
	assert.Equal(t, http.StatusForbidden, call(t, router, http.MethodGet, "/api/admin/positions", super, nil).Code)
	assert.Equal(t, http.StatusForbidden, call(t, router, http.MethodGet, "/api/ballot", admin, nil).Code)

	// a theme change is allowed to both consoles
	w = call(t, router, http.MethodPut, "/api/settings/theme", admin, map[string]string{"theme": "dark"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = call(t, router, http.MethodPut, "/api/settings/theme", super, map[string]string{"theme": "sepia"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDestructiveOperationsNeedConfirmation(t *testing.T) {
	_, router := newRouter(t)
	super := login(t, router, "superadmin", "superadmin123")

	w := call(t, router, http.MethodPost, "/api/super/workspaces", super, services.WorkspaceRequest{Name: "North"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[struct {
		ID string `json:"id"`
	}](t, w).ID

	w = call(t, router, http.MethodPost, "/api/super/workspaces/"+id+"/new-election", super, nil)
	assert.Equal(t, http.StatusPreconditionRequired, w.Code)

	w = call(t, router, http.MethodPost, "/api/super/workspaces/"+id+"/new-election?confirm=true", super, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(t, router, http.MethodPost, "/api/super/backup/import", super, map[string]any{"workspaces": []any{}})
	assert.Equal(t, http.StatusPreconditionRequired, w.Code)

	w = call(t, router, http.MethodPost, "/api/super/backup/archives", super, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBackupExportImport(t *testing.T) {
	s, router := newRouter(t)
	super := login(t, router, "superadmin", "superadmin123")
	require.Equal(t, http.StatusCreated, call(t, router, http.MethodPost, "/api/super/workspaces", super, services.WorkspaceRequest{Name: "North"}).Code)

	w := call(t, router, http.MethodGet, "/api/super/backup/export", super, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "urna-backup-")
	document := w.Body.Bytes()
	exported := s.State()

	require.Equal(t, http.StatusCreated, call(t, router, http.MethodPost, "/api/super/workspaces", super, services.WorkspaceRequest{Name: "South"}).Code)

	req := httptest.NewRequest(http.MethodPost, "/api/super/backup/import?confirm=true", bytes.NewReader(document))
	req.Header.Set("Authorization", "Bearer "+super)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, exported, s.State())

	req = httptest.NewRequest(http.MethodPost, "/api/super/backup/import?confirm=true", bytes.NewReader([]byte(`{"workspaces": "oops"}`)))
	req.Header.Set("Authorization", "Bearer "+super)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, exported, s.State())
}
