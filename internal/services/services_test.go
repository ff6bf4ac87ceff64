package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gravadigital/urna-api/internal/audit"
	domain "github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/domain/profile"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
	"github.com/gravadigital/urna-api/internal/storage/memory"
	"github.com/gravadigital/urna-api/internal/store"
)

var (
	admin = domain.Actor{ID: "admin", Name: "Head Teacher", Role: domain.RoleAdmin}
	super = domain.Actor{ID: "superadmin", Name: "Super Admin", Role: domain.RoleSuperAdmin}
	epoch = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
)

func newServices(t *testing.T) (*store.Store, *Services) {
	t.Helper()
	s := store.New(memory.NewGateway(), profile.DefaultSuperAdmin("superadmin", "superadmin123"),
		store.WithClock(func() time.Time { return epoch }))
	require.NoError(t, s.Load(context.Background()))
	require.NoError(t, s.MutateRoot(func(root *workspace.AppState) error {
		root.Workspaces = append(root.Workspaces, workspace.Workspace{ID: "w1", Name: "W1"})
		return nil
	}))
	require.NoError(t, s.SelectWorkspace("w1"))
	return s, New(s, audit.NewRecorder(s))
}

func seed(t *testing.T, s *store.Store, fn func(d *workspace.Data)) {
	t.Helper()
	require.NoError(t, s.Mutate(func(d *workspace.Data) error {
		fn(d)
		return nil
	}))
}

func working(t *testing.T, s *store.Store) workspace.Data {
	t.Helper()
	d, err := s.Working()
	require.NoError(t, err)
	return d
}

func classPtr(c string) *string { return &c }
