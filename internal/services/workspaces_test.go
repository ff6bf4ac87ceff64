package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/domain/election"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
)

func TestCreateWorkspace(t *testing.T) {
	s, svc := newServices(t)

	ws, err := svc.Workspaces.Create(super, WorkspaceRequest{Name: "  South School "})
	require.NoError(t, err)
	assert.Equal(t, "South School", ws.Name)
	assert.NotEmpty(t, ws.ID)

	_, err = svc.Workspaces.Create(super, WorkspaceRequest{Name: "south school"})
	assert.ErrorIs(t, err, ErrConflict)

	assert.Len(t, svc.Workspaces.List(), 2)
	global := s.State().SuperAdminAuditLog
	require.Len(t, global, 1)
	assert.Equal(t, domain.ActionWorkspaceCreated, global[0].Action)
	assert.Empty(t, working(t, s).AuditLog)
}

func TestRenameWorkspace(t *testing.T) {
	_, svc := newServices(t)

	ws, err := svc.Workspaces.Rename(super, "w1", WorkspaceRequest{Name: "North"})
	require.NoError(t, err)
	assert.Equal(t, "North", ws.Name)

	_, err = svc.Workspaces.Rename(super, "ghost", WorkspaceRequest{Name: "North"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteWorkspaceNeedsConfirmationWhenPopulated(t *testing.T) {
	s, svc := newServices(t)
	seed(t, s, func(d *workspace.Data) {
		d.Voters = []election.Voter{{ID: "v1", Name: "Ann", Class: "9", RollNo: "1", Password: "1"}}
	})

	err := svc.Workspaces.Delete(super, "w1", false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Len(t, s.State().Workspaces, 1)

	require.NoError(t, svc.Workspaces.Delete(super, "w1", true))
	state := s.State()
	assert.Empty(t, state.Workspaces)
	assert.NotContains(t, state.WorkspaceData, "w1")
	_, active := s.ActiveWorkspace()
	assert.False(t, active)
}

func TestDeleteEmptyWorkspace(t *testing.T) {
	_, svc := newServices(t)
	ws, err := svc.Workspaces.Create(super, WorkspaceRequest{Name: "Spare"})
	require.NoError(t, err)

	assert.NoError(t, svc.Workspaces.Delete(super, ws.ID, false))
}

func TestAdminProfile(t *testing.T) {
	s, svc := newServices(t)

	_, err := svc.Workspaces.SetAdmin(super, "w1", ProfileRequest{ID: "head", Name: "Head Teacher"})
	assert.ErrorIs(t, err, ErrValidation, "password required for a new admin")

	_, err = svc.Workspaces.SetAdmin(super, "w1", ProfileRequest{ID: "superadmin", Name: "Shadow", Password: "pass"})
	assert.ErrorIs(t, err, ErrValidation)

	p, err := svc.Workspaces.SetAdmin(super, "w1", ProfileRequest{ID: "head", Name: "Head Teacher", Password: "pass"})
	require.NoError(t, err)
	require.NotNil(t, working(t, s).AdminProfile)
	assert.Equal(t, p, *working(t, s).AdminProfile)

	kept, err := svc.Workspaces.SetAdmin(super, "w1", ProfileRequest{ID: "head", Name: "Principal"})
	require.NoError(t, err)
	assert.Equal(t, "pass", kept.Password)

	require.NoError(t, svc.Workspaces.RemoveAdmin(super, "w1"))
	assert.Nil(t, working(t, s).AdminProfile)
	assert.ErrorIs(t, svc.Workspaces.RemoveAdmin(super, "w1"), ErrNotFound)
}

func TestUpdateSuperAdminKeepsPassword(t *testing.T) {
	_, svc := newServices(t)

	p, err := svc.Workspaces.UpdateSuperAdmin(super, ProfileRequest{ID: "root", Name: "Root", Contact: "root@school.test"})
	require.NoError(t, err)
	assert.Equal(t, "superadmin123", p.Password)
	assert.Equal(t, p, svc.Workspaces.SuperAdmin())
}

func TestSetTheme(t *testing.T) {
	_, svc := newServices(t)

	require.NoError(t, svc.Workspaces.SetTheme(workspace.ThemeDark))
	assert.Equal(t, workspace.ThemeDark, svc.Workspaces.Theme())
	assert.ErrorIs(t, svc.Workspaces.SetTheme("sepia"), ErrValidation)
}
