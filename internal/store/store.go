// Package store holds the authoritative in-memory application state: the
// persisted root tree plus a working copy of the active workspace.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/urna-api/internal/domain/profile"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/persist"
	"github.com/gravadigital/urna-api/internal/storage/blob"
)

var (
	// ErrNoActiveWorkspace is returned by workspace-scoped operations when none is selected
	ErrNoActiveWorkspace = errors.New("select workspace first")
	// ErrWorkspaceNotFound is returned for ids missing from the registry
	ErrWorkspaceNotFound = errors.New("workspace not found")
)

// Store owns the root state. Every mutation runs on a copy and is committed
// whole, then a debounced save is scheduled.
type Store struct {
	mu       sync.RWMutex
	root     *workspace.AppState
	activeID string
	working  workspace.Data

	gateway blob.Gateway
	sched   *persist.Scheduler
	seed    profile.Profile
	now     func() time.Time
	log     *log.Logger
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSyncOptions sets the debounce timings
func WithSyncOptions(opts persist.Options) Option {
	return func(s *Store) {
		s.sched = persist.NewScheduler(s.gateway, s.Snapshot, opts)
	}
}

// New creates a store holding defaults until Load is called
func New(gateway blob.Gateway, seed profile.Profile, opts ...Option) *Store {
	s := &Store{
		root:    workspace.Defaults(seed),
		working: workspace.DefaultData(),
		gateway: gateway,
		seed:    seed,
		now:     func() time.Time { return time.Now().UTC() },
		log:     logger.Store(),
	}
	s.sched = persist.NewScheduler(gateway, s.Snapshot, persist.DefaultOptions())
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store clock in UTC
func (s *Store) Now() time.Time {
	return s.now().UTC()
}

// Seed returns the Super Admin profile used when none is stored
func (s *Store) Seed() profile.Profile {
	return s.seed
}

// Load replaces the in-memory state with the gateway contents. A missing or
// malformed blob yields defaults; a transport failure also yields defaults but
// is reported through the sync status and returned.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.gateway.Load(ctx)

	var root *workspace.AppState
	var loadErr error
	switch {
	case err != nil:
		loadErr = fmt.Errorf("load state: %w", err)
		s.log.Error("Failed to load state, continuing with defaults", "error", err)
		s.sched.Report(loadErr)
		root = workspace.Defaults(s.seed)
	case data == nil:
		s.log.Info("No saved state, starting with defaults")
		root = workspace.Defaults(s.seed)
	default:
		decoded, err := blob.Decode(data, s.seed)
		if err != nil {
			s.log.Warn("Saved state is unreadable, starting with defaults", "error", err)
			root = workspace.Defaults(s.seed)
		} else {
			root = decoded
		}
	}

	s.mu.Lock()
	s.root = root
	s.activeID = ""
	s.working = workspace.DefaultData()
	if root.LastWorkspaceID != nil {
		if _, ok := root.Workspace(*root.LastWorkspaceID); ok {
			s.hydrateLocked(*root.LastWorkspaceID)
		} else {
			root.LastWorkspaceID = nil
		}
	}
	workspaces, active := len(root.Workspaces), s.activeID
	s.mu.Unlock()

	s.log.Info("State loaded", "workspaces", workspaces, "active_workspace", active)
	return loadErr
}

// hydrateLocked makes id active and replaces the working copy wholesale
func (s *Store) hydrateLocked(id string) {
	s.activeID = id
	s.working = s.root.DataFor(id)
	activeID := id
	s.root.LastWorkspaceID = &activeID
}

// SelectWorkspace makes id the active workspace; an empty id clears the selection
func (s *Store) SelectWorkspace(id string) error {
	s.mu.Lock()
	if id == "" {
		s.activeID = ""
		s.working = workspace.DefaultData()
		s.root.LastWorkspaceID = nil
	} else {
		if _, ok := s.root.Workspace(id); !ok {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrWorkspaceNotFound, id)
		}
		s.hydrateLocked(id)
	}
	s.mu.Unlock()

	s.log.Debug("Active workspace changed", "workspace_id", id)
	s.sched.Trigger()
	return nil
}

// ActiveWorkspace returns the selected workspace, if any
func (s *Store) ActiveWorkspace() (workspace.Workspace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activeID == "" {
		return workspace.Workspace{}, false
	}
	return s.root.Workspace(s.activeID)
}

// Working returns a copy of the active workspace data
func (s *Store) Working() (workspace.Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activeID == "" {
		return workspace.Data{}, ErrNoActiveWorkspace
	}
	return s.working.Clone(), nil
}

// WorkspaceData returns a copy of any workspace's data, defaults if never touched
func (s *Store) WorkspaceData(id string) (workspace.Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.root.Workspace(id); !ok {
		return workspace.Data{}, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, id)
	}
	if id == s.activeID {
		return s.working.Clone(), nil
	}
	return s.root.DataFor(id), nil
}

// State returns a deep copy of the root
func (s *Store) State() *workspace.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Clone()
}

// Snapshot encodes the whole tree as it is right now
func (s *Store) Snapshot() ([]byte, error) {
	return blob.Encode(s.State())
}

// CommitWorkspace folds data into the root as the bag of workspace id
func (s *Store) CommitWorkspace(id string, data workspace.Data) error {
	s.mu.Lock()
	if _, ok := s.root.Workspace(id); !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWorkspaceNotFound, id)
	}
	s.commitLocked(id, data)
	s.mu.Unlock()

	s.sched.Trigger()
	return nil
}

func (s *Store) commitLocked(id string, data workspace.Data) {
	data.Normalize()
	s.root.WorkspaceData[id] = data.Clone()
	if id == s.activeID {
		s.working = data.Clone()
	}
}

// Mutate applies fn to the active workspace. Nothing changes if fn fails.
func (s *Store) Mutate(fn func(d *workspace.Data) error) error {
	s.mu.Lock()
	if s.activeID == "" {
		s.mu.Unlock()
		return ErrNoActiveWorkspace
	}

	draft := s.working.Clone()
	if err := fn(&draft); err != nil {
		s.mu.Unlock()
		return err
	}
	s.commitLocked(s.activeID, draft)
	s.mu.Unlock()

	s.sched.Trigger()
	return nil
}

// MutateWorkspace applies fn to any workspace by id, active or not
func (s *Store) MutateWorkspace(id string, fn func(d *workspace.Data) error) error {
	s.mu.Lock()
	if _, ok := s.root.Workspace(id); !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWorkspaceNotFound, id)
	}

	var draft workspace.Data
	if id == s.activeID {
		draft = s.working.Clone()
	} else {
		draft = s.root.DataFor(id)
	}
	if err := fn(&draft); err != nil {
		s.mu.Unlock()
		return err
	}
	s.commitLocked(id, draft)
	s.mu.Unlock()

	s.sched.Trigger()
	return nil
}

// MutateRoot applies fn to a copy of the whole tree. Removing the active
// workspace from the registry clears the selection.
func (s *Store) MutateRoot(fn func(root *workspace.AppState) error) error {
	s.mu.Lock()
	draft := s.root.Clone()
	if err := fn(draft); err != nil {
		s.mu.Unlock()
		return err
	}
	draft.Normalize(s.seed)
	s.root = draft

	if s.activeID != "" {
		if _, ok := s.root.Workspace(s.activeID); ok {
			s.working = s.root.DataFor(s.activeID)
		} else {
			s.log.Info("Active workspace removed, clearing selection", "workspace_id", s.activeID)
			s.activeID = ""
			s.working = workspace.DefaultData()
			s.root.LastWorkspaceID = nil
		}
	}
	s.mu.Unlock()

	s.sched.Trigger()
	return nil
}

// Overwrite replaces the gateway contents with data and reloads from it.
// Any pending debounced save is dropped first so it cannot land afterwards.
func (s *Store) Overwrite(ctx context.Context, data []byte) error {
	if err := s.sched.Cancel(ctx); err != nil {
		return fmt.Errorf("wait for in-flight save: %w", err)
	}
	if err := s.gateway.Save(ctx, data); err != nil {
		return fmt.Errorf("overwrite stored state: %w", err)
	}
	return s.Load(ctx)
}

// SyncStatus returns the state of the most recent save
func (s *Store) SyncStatus() persist.Event {
	return s.sched.Status()
}

// Subscribe registers fn for sync status changes
func (s *Store) Subscribe(fn func(persist.Event)) {
	s.sched.Subscribe(fn)
}

// Flush writes any pending change now
func (s *Store) Flush(ctx context.Context) error {
	return s.sched.Flush(ctx)
}

// Close flushes and stops scheduling saves
func (s *Store) Close(ctx context.Context) error {
	return s.sched.Close(ctx)
}
