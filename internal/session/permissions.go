package session

import domain "github.com/gravadigital/urna-api/internal/domain/audit"

// Permission names a gated console operation
type Permission string

const (
	PermManageWorkspaces Permission = "manage_workspaces"
	PermManageProfiles   Permission = "manage_profiles"
	PermManageBackups    Permission = "manage_backups"
	PermNewElection      Permission = "new_election"
	PermViewGlobalAudit  Permission = "view_global_audit"
	PermChangeSettings   Permission = "change_settings"
	PermManageRoster     Permission = "manage_roster"
	PermControlElection  Permission = "control_election"
	PermViewAudit        Permission = "view_audit"
	PermViewResults      Permission = "view_results"
	PermCastBallot       Permission = "cast_ballot"
)

var permissions = map[domain.Role]map[Permission]bool{
	domain.RoleSuperAdmin: {
		PermManageWorkspaces: true,
		PermManageProfiles:   true,
		PermManageBackups:    true,
		PermNewElection:      true,
		PermViewGlobalAudit:  true,
		PermChangeSettings:   true,
		PermViewResults:      true,
	},
	domain.RoleAdmin: {
		PermManageRoster:    true,
		PermControlElection: true,
		PermViewAudit:       true,
		PermViewResults:     true,
		PermChangeSettings:  true,
	},
	domain.RoleVoter: {
		PermCastBallot: true,
	},
}

// Can reports whether role is allowed perm
func Can(role domain.Role, perm Permission) bool {
	return permissions[role][perm]
}
