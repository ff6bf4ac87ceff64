package workspace

import (
	"fmt"
	"time"

	"github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/domain/profile"
)

// SchemaVersion is the layout written by this build. Blobs without a tag are version 1.
const SchemaVersion = 2

// Theme is the UI colour scheme preference
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a supported theme
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// AppState is the persisted root: the unit saved by gateways and written to backups
type AppState struct {
	SchemaVersion       int             `json:"schemaVersion"`
	Workspaces          []Workspace     `json:"workspaces"`
	SuperAdminProfile   profile.Profile `json:"superAdminProfile"`
	WorkspaceData       map[string]Data `json:"workspaceData"`
	Theme               Theme           `json:"theme"`
	LastWorkspaceID     *string         `json:"lastWorkspaceId"`
	LastBackupTimestamp *time.Time      `json:"lastBackupTimestamp"`
	SuperAdminAuditLog  []audit.Entry   `json:"superAdminAuditLog"`
}

// Defaults builds the first-run state around the seeded Super Admin
func Defaults(superAdmin profile.Profile) *AppState {
	return &AppState{
		SchemaVersion:      SchemaVersion,
		Workspaces:         []Workspace{},
		SuperAdminProfile:  superAdmin,
		WorkspaceData:      map[string]Data{},
		Theme:              ThemeLight,
		SuperAdminAuditLog: []audit.Entry{},
	}
}

// Normalize fills missing fields with defaults. seed replaces an absent Super Admin.
func (s *AppState) Normalize(seed profile.Profile) {
	if s.SchemaVersion == 0 {
		s.SchemaVersion = 1
	}
	if s.Workspaces == nil {
		s.Workspaces = []Workspace{}
	}
	if s.SuperAdminProfile.ID == "" {
		s.SuperAdminProfile = seed
	}
	if s.WorkspaceData == nil {
		s.WorkspaceData = map[string]Data{}
	}
	for id, data := range s.WorkspaceData {
		data.Normalize()
		s.WorkspaceData[id] = data
	}
	if !s.Theme.Valid() {
		s.Theme = ThemeLight
	}
	if s.LastWorkspaceID != nil && *s.LastWorkspaceID == "" {
		s.LastWorkspaceID = nil
	}
	if s.LastBackupTimestamp != nil {
		ts := s.LastBackupTimestamp.UTC()
		s.LastBackupTimestamp = &ts
	}
	if s.SuperAdminAuditLog == nil {
		s.SuperAdminAuditLog = []audit.Entry{}
	}
}

// Validate checks the invariants a decoded state must hold, down to each workspace bag
func (s *AppState) Validate() error {
	if s.SchemaVersion > SchemaVersion {
		return fmt.Errorf("unsupported schema version %d (newest supported is %d)", s.SchemaVersion, SchemaVersion)
	}
	if err := s.SuperAdminProfile.Validate(); err != nil {
		return fmt.Errorf("superAdminProfile: %w", err)
	}

	seen := make(map[string]struct{}, len(s.Workspaces))
	for i := range s.Workspaces {
		ws := &s.Workspaces[i]
		if err := ws.Validate(); err != nil {
			return fmt.Errorf("workspaces[%d]: %w", i, err)
		}
		if _, dup := seen[ws.ID]; dup {
			return fmt.Errorf("workspaces[%d]: duplicate id %q", i, ws.ID)
		}
		seen[ws.ID] = struct{}{}
	}

	for id, data := range s.WorkspaceData {
		if err := data.Validate(); err != nil {
			return fmt.Errorf("workspaceData[%s]: %w", id, err)
		}
	}
	return nil
}

// upgrades moves a state from the keyed version to the next one
var upgrades = map[int]func(*AppState){
	// v1 blobs predate the global journal; Normalize already gave it an empty log.
	1: func(s *AppState) {},
}

// Upgrade brings a normalized state up to SchemaVersion
func (s *AppState) Upgrade() error {
	for s.SchemaVersion < SchemaVersion {
		step, ok := upgrades[s.SchemaVersion]
		if !ok {
			return fmt.Errorf("no upgrade path from schema version %d", s.SchemaVersion)
		}
		step(s)
		s.SchemaVersion++
	}
	return nil
}

// Workspace looks up a registry entry by id
func (s *AppState) Workspace(id string) (Workspace, bool) {
	for _, ws := range s.Workspaces {
		if ws.ID == id {
			return ws, true
		}
	}
	return Workspace{}, false
}

// DataFor returns a copy of the bag for id, or defaults when none was stored yet
func (s *AppState) DataFor(id string) Data {
	if data, ok := s.WorkspaceData[id]; ok {
		return data.Clone()
	}
	return DefaultData()
}

// Clone returns a deep copy of s
func (s *AppState) Clone() *AppState {
	out := *s
	out.Workspaces = append([]Workspace{}, s.Workspaces...)
	out.WorkspaceData = make(map[string]Data, len(s.WorkspaceData))
	for id, data := range s.WorkspaceData {
		out.WorkspaceData[id] = data.Clone()
	}
	if s.LastWorkspaceID != nil {
		id := *s.LastWorkspaceID
		out.LastWorkspaceID = &id
	}
	if s.LastBackupTimestamp != nil {
		ts := *s.LastBackupTimestamp
		out.LastBackupTimestamp = &ts
	}
	out.SuperAdminAuditLog = append([]audit.Entry{}, s.SuperAdminAuditLog...)
	return &out
}

// Record prepends an entry to the global Super Admin journal
func (s *AppState) Record(entry audit.Entry) {
	s.SuperAdminAuditLog = audit.Prepend(s.SuperAdminAuditLog, entry)
}
