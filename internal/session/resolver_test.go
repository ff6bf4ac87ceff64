package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/urna-api/internal/audit"
	domain "github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/domain/election"
	"github.com/gravadigital/urna-api/internal/domain/profile"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
	"github.com/gravadigital/urna-api/internal/storage/memory"
	"github.com/gravadigital/urna-api/internal/store"
)

type fixture struct {
	store    *store.Store
	resolver *Resolver
	recorder *audit.Recorder
}

func newFixture(t *testing.T, status election.Status, voters ...election.Voter) fixture {
	t.Helper()
	s := store.New(memory.NewGateway(), profile.DefaultSuperAdmin("superadmin", "superadmin123"))
	require.NoError(t, s.Load(context.Background()))
	require.NoError(t, s.MutateRoot(func(root *workspace.AppState) error {
		root.Workspaces = append(root.Workspaces, workspace.Workspace{ID: "w1", Name: "North"})
		data := workspace.DefaultData()
		data.AdminProfile = &profile.Profile{ID: "admin", Name: "Head Teacher", Password: "admin123"}
		data.ElectionStatus = status
		data.Voters = voters
		root.WorkspaceData["w1"] = data
		return nil
	}))

	rec := audit.NewRecorder(s)
	return fixture{store: s, resolver: NewResolver(s, rec), recorder: rec}
}

func (f fixture) journal(t *testing.T) []domain.Entry {
	t.Helper()
	entries, err := f.recorder.Workspace(audit.Filter{})
	require.NoError(t, err)
	return entries
}

func voter(id string) election.Voter {
	return election.Voter{ID: id, Name: "Voter " + id, Class: "10A", RollNo: "1", Password: id}
}

func TestSuperAdminResolvesWithoutWorkspace(t *testing.T) {
	f := newFixture(t, election.StatusNotStarted)

	sess, err := f.resolver.Resolve(Credentials{LoginID: "superadmin", Password: "superadmin123"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, sess.Role)
	assert.Empty(t, sess.WorkspaceID)

	global := f.recorder.Global(audit.Filter{})
	require.Len(t, global, 1)
	assert.Equal(t, domain.ActionSuperAdminLogin, global[0].Action)
}

func TestSuperAdminIDIsCaseSensitive(t *testing.T) {
	f := newFixture(t, election.StatusNotStarted)
	require.NoError(t, f.store.SelectWorkspace("w1"))

	_, err := f.resolver.Resolve(Credentials{LoginID: "SUPERADMIN", Password: "superadmin123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestScopedLoginRequiresWorkspace(t *testing.T) {
	f := newFixture(t, election.StatusInProgress, voter("v1"))

	_, err := f.resolver.Resolve(Credentials{LoginID: "admin", Password: "admin123"})
	assert.ErrorIs(t, err, ErrSelectWorkspace)

	_, err = f.resolver.Resolve(Credentials{LoginID: "nobody", Password: "x"})
	assert.ErrorIs(t, err, ErrSelectWorkspace)
}

func TestSuperAdminBeatsIdenticalAdmin(t *testing.T) {
	f := newFixture(t, election.StatusNotStarted)
	require.NoError(t, f.store.MutateWorkspace("w1", func(d *workspace.Data) error {
		d.AdminProfile = &profile.Profile{ID: "superadmin", Name: "Copycat", Password: "superadmin123"}
		return nil
	}))
	require.NoError(t, f.store.SelectWorkspace("w1"))

	sess, err := f.resolver.Resolve(Credentials{LoginID: "superadmin", Password: "superadmin123"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, sess.Role)
	assert.Empty(t, f.journal(t))
}

func TestAdminLogin(t *testing.T) {
	f := newFixture(t, election.StatusNotStarted)
	require.NoError(t, f.store.SelectWorkspace("w1"))

	sess, err := f.resolver.Resolve(Credentials{LoginID: "admin", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, sess.Role)
	assert.Equal(t, "w1", sess.WorkspaceID)

	entries := f.journal(t)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionAdminLogin, entries[0].Action)
	assert.Equal(t, domain.RoleAdmin, entries[0].Actor.Role)
}

func TestAdminWrongPasswordDoesNotLog(t *testing.T) {
	f := newFixture(t, election.StatusNotStarted)
	require.NoError(t, f.store.SelectWorkspace("w1"))

	_, err := f.resolver.Resolve(Credentials{LoginID: "admin", Password: "guess"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, f.journal(t))
}

func TestVoterLoginIsCaseInsensitive(t *testing.T) {
	f := newFixture(t, election.StatusInProgress, voter("v1"))
	require.NoError(t, f.store.SelectWorkspace("w1"))

	sess, err := f.resolver.Resolve(Credentials{LoginID: "V1", Password: "v1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleVoter, sess.Role)
	assert.Equal(t, "v1", sess.Actor.ID)

	entries := f.journal(t)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ActionVoterLoginSuccess, entries[0].Action)
	assert.Equal(t, "v1", entries[0].Actor.ID)
}

func TestVoterRejectionPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		status  election.Status
		blocked bool
		voted   bool
		want    error
	}{
		{"blocked before status", election.StatusNotStarted, true, true, ErrAccountBlocked},
		{"blocked while running", election.StatusInProgress, true, false, ErrAccountBlocked},
		{"status before voted", election.StatusEnded, false, true, ErrElectionNotRunning},
		{"not started", election.StatusNotStarted, false, false, ErrElectionNotRunning},
		{"already voted", election.StatusInProgress, false, true, ErrAlreadyVoted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := voter("v1")
			v.IsBlocked = tt.blocked
			v.HasVoted = tt.voted
			f := newFixture(t, tt.status, v)
			require.NoError(t, f.store.SelectWorkspace("w1"))

			_, err := f.resolver.Resolve(Credentials{LoginID: "v1", Password: "v1"})
			assert.ErrorIs(t, err, tt.want)

			entries := f.journal(t)
			require.Len(t, entries, 1)
			assert.Equal(t, domain.ActionVoterLoginFail, entries[0].Action)
			assert.Equal(t, domain.RoleVoter, entries[0].Actor.Role)
			assert.Equal(t, tt.want.Error(), entries[0].Details)
		})
	}
}

func TestUnknownVoterIsGeneric(t *testing.T) {
	f := newFixture(t, election.StatusInProgress, voter("v1"))
	require.NoError(t, f.store.SelectWorkspace("w1"))

	_, err := f.resolver.Resolve(Credentials{LoginID: "v1", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.resolver.Resolve(Credentials{LoginID: "v2", Password: "v2"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Empty(t, f.journal(t))
}

func TestCan(t *testing.T) {
	assert.True(t, Can(domain.RoleSuperAdmin, PermManageWorkspaces))
	assert.False(t, Can(domain.RoleSuperAdmin, PermCastBallot))
	assert.True(t, Can(domain.RoleAdmin, PermControlElection))
	assert.False(t, Can(domain.RoleAdmin, PermManageWorkspaces))
	assert.True(t, Can(domain.RoleVoter, PermCastBallot))
	assert.False(t, Can(domain.RoleSystem, PermViewResults))
}

func TestTokenRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tokens := NewTokens("secret", time.Hour).WithClock(func() time.Time { return now })
	sess := Session{
		Role:        domain.RoleAdmin,
		Actor:       domain.Actor{ID: "admin", Name: "Head Teacher", Role: domain.RoleAdmin},
		WorkspaceID: "w1",
	}

	raw, expires, err := tokens.Issue(sess)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expires)

	parsed, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, sess, parsed)

	_, err = NewTokens("other", time.Hour).WithClock(func() time.Time { return now }).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	now = now.Add(2 * time.Hour)
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
