package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies who performed an audited action
type Role string

const (
	RoleVoter      Role = "Voter"
	RoleAdmin      Role = "Admin"
	RoleSuperAdmin Role = "Super Admin"
	RoleSystem     Role = "System"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleVoter, RoleAdmin, RoleSuperAdmin, RoleSystem:
		return true
	}
	return false
}

// Actor is the resolved identity attached to every entry
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// SystemActor is used for transitions nobody triggered by hand, such as the countdown
func SystemActor() Actor {
	return Actor{ID: "system", Name: "System", Role: RoleSystem}
}

// Validate checks that the actor is resolved
func (a Actor) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("actor id is required")
	}
	if !a.Role.Valid() {
		return fmt.Errorf("invalid actor role: %q", a.Role)
	}
	return nil
}

// Action is the closed set of audited events
type Action string

const (
	ActionVoterLoginSuccess Action = "VOTER_LOGIN_SUCCESS"
	ActionVoterLoginFail    Action = "VOTER_LOGIN_FAIL"
	ActionAdminLogin        Action = "ADMIN_LOGIN"
	ActionSuperAdminLogin   Action = "SUPER_ADMIN_LOGIN"
	ActionVoteCast          Action = "VOTE_CAST"
	ActionVoteReset         Action = "VOTE_RESET"
	ActionElectionStart     Action = "ELECTION_START"
	ActionElectionEnd       Action = "ELECTION_END"
	ActionElectionReset     Action = "ELECTION_RESET"
	ActionResultsPublished  Action = "RESULTS_PUBLISHED"
	ActionResultsHidden     Action = "RESULTS_HIDDEN"
	ActionDetailsUpdated    Action = "ELECTION_DETAILS_UPDATED"
	ActionPositionCreated   Action = "POSITION_CREATED"
	ActionPositionUpdated   Action = "POSITION_UPDATED"
	ActionPositionDeleted   Action = "POSITION_DELETED"
	ActionCandidateCreated  Action = "CANDIDATE_CREATED"
	ActionCandidateUpdated  Action = "CANDIDATE_UPDATED"
	ActionCandidateDeleted  Action = "CANDIDATE_DELETED"
	ActionVoterCreated      Action = "VOTER_CREATED"
	ActionVoterUpdated      Action = "VOTER_UPDATED"
	ActionVoterDeleted      Action = "VOTER_DELETED"
	ActionVoterBlocked      Action = "VOTER_BLOCKED"
	ActionVoterUnblocked    Action = "VOTER_UNBLOCKED"
	ActionWorkspaceCreated  Action = "WORKSPACE_CREATED"
	ActionWorkspaceUpdated  Action = "WORKSPACE_UPDATED"
	ActionWorkspaceDeleted  Action = "WORKSPACE_DELETED"
	ActionAdminProfileSet   Action = "ADMIN_PROFILE_UPDATED"
	ActionAdminProfileClear Action = "ADMIN_PROFILE_REMOVED"
	ActionProfileUpdated    Action = "SUPER_ADMIN_PROFILE_UPDATED"
	ActionBackupExported    Action = "BACKUP_EXPORTED"
	ActionBackupImported    Action = "BACKUP_IMPORTED"
)

var knownActions = map[Action]struct{}{
	ActionVoterLoginSuccess: {}, ActionVoterLoginFail: {}, ActionAdminLogin: {}, ActionSuperAdminLogin: {},
	ActionVoteCast: {}, ActionVoteReset: {},
	ActionElectionStart: {}, ActionElectionEnd: {}, ActionElectionReset: {},
	ActionResultsPublished: {}, ActionResultsHidden: {}, ActionDetailsUpdated: {},
	ActionPositionCreated: {}, ActionPositionUpdated: {}, ActionPositionDeleted: {},
	ActionCandidateCreated: {}, ActionCandidateUpdated: {}, ActionCandidateDeleted: {},
	ActionVoterCreated: {}, ActionVoterUpdated: {}, ActionVoterDeleted: {},
	ActionVoterBlocked: {}, ActionVoterUnblocked: {},
	ActionWorkspaceCreated: {}, ActionWorkspaceUpdated: {}, ActionWorkspaceDeleted: {},
	ActionAdminProfileSet: {}, ActionAdminProfileClear: {}, ActionProfileUpdated: {},
	ActionBackupExported: {}, ActionBackupImported: {},
}

// Valid reports whether a is part of the closed action set
func (a Action) Valid() bool {
	_, ok := knownActions[a]
	return ok
}

// Entry is one line of an audit journal
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     Actor     `json:"actor"`
	Action    Action    `json:"action"`
	Details   string    `json:"details"`
}

// NewEntry builds an entry stamped at now
func NewEntry(actor Actor, action Action, details string, now time.Time) (Entry, error) {
	if err := actor.Validate(); err != nil {
		return Entry{}, err
	}
	if !action.Valid() {
		return Entry{}, fmt.Errorf("unknown audit action: %q", action)
	}
	return Entry{
		ID:        uuid.NewString(),
		Timestamp: now.UTC(),
		Actor:     actor,
		Action:    action,
		Details:   details,
	}, nil
}

// Prepend returns log with entry placed first; journals are kept newest-first
func Prepend(log []Entry, entry Entry) []Entry {
	out := make([]Entry, 0, len(log)+1)
	out = append(out, entry)
	return append(out, log...)
}
