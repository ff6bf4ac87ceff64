// Package session decides which role a login credential pair belongs to.
package session

import (
	"errors"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/urna-api/internal/audit"
	domain "github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/domain/election"
	"github.com/gravadigital/urna-api/internal/domain/profile"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/store"
)

var (
	ErrSelectWorkspace    = errors.New("select workspace first")
	ErrAccountBlocked     = errors.New("account blocked")
	ErrElectionNotRunning = errors.New("election not in progress")
	ErrAlreadyVoted       = errors.New("already voted")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Credentials is what the login form submits
type Credentials struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

// Session is a resolved identity
type Session struct {
	Role        domain.Role  `json:"role"`
	Actor       domain.Actor `json:"actor"`
	WorkspaceID string       `json:"workspace_id,omitempty"`
}

// Rejection is a refusal tied to a known identity; it is journaled against Actor
type Rejection struct {
	Reason error
	Actor  domain.Actor
}

func (r *Rejection) Error() string { return r.Reason.Error() }

func (r *Rejection) Unwrap() error { return r.Reason }

// View is the slice of state a check reads
type View struct {
	SuperAdmin profile.Profile
	Workspace  *workspace.Workspace
	Data       *workspace.Data
}

// Check is one resolution strategy. Match returns (nil, nil) when the
// credentials do not belong to the identity it checks.
type Check interface {
	Name() string
	Scoped() bool
	Match(view View, creds Credentials) (*Session, error)
}

// SuperAdminCheck matches the global profile, with or without an active workspace
type SuperAdminCheck struct{}

func (SuperAdminCheck) Name() string { return "super_admin" }

func (SuperAdminCheck) Scoped() bool { return false }

func (SuperAdminCheck) Match(view View, creds Credentials) (*Session, error) {
	if !view.SuperAdmin.Matches(creds.LoginID, creds.Password) {
		return nil, nil
	}
	return &Session{
		Role:  domain.RoleSuperAdmin,
		Actor: domain.Actor{ID: view.SuperAdmin.ID, Name: view.SuperAdmin.Name, Role: domain.RoleSuperAdmin},
	}, nil
}

// AdminCheck matches the active workspace's admin profile
type AdminCheck struct{}

func (AdminCheck) Name() string { return "admin" }

func (AdminCheck) Scoped() bool { return true }

func (AdminCheck) Match(view View, creds Credentials) (*Session, error) {
	admin := view.Data.AdminProfile
	if !admin.Matches(creds.LoginID, creds.Password) {
		return nil, nil
	}
	return &Session{
		Role:        domain.RoleAdmin,
		Actor:       domain.Actor{ID: admin.ID, Name: admin.Name, Role: domain.RoleAdmin},
		WorkspaceID: view.Workspace.ID,
	}, nil
}

// VoterCheck matches a voter by case-insensitive id, then applies the voting gates
type VoterCheck struct{}

func (VoterCheck) Name() string { return "voter" }

func (VoterCheck) Scoped() bool { return true }

func (VoterCheck) Match(view View, creds Credentials) (*Session, error) {
	idx := view.Data.VoterIndex(strings.TrimSpace(creds.LoginID))
	if idx < 0 {
		return nil, nil
	}
	voter := view.Data.Voters[idx]
	if voter.Password != creds.Password {
		return nil, nil
	}

	actor := domain.Actor{ID: voter.ID, Name: voter.Name, Role: domain.RoleVoter}
	switch {
	case voter.IsBlocked:
		return nil, &Rejection{Reason: ErrAccountBlocked, Actor: actor}
	case view.Data.ElectionStatus != election.StatusInProgress:
		return nil, &Rejection{Reason: ErrElectionNotRunning, Actor: actor}
	case voter.HasVoted:
		return nil, &Rejection{Reason: ErrAlreadyVoted, Actor: actor}
	}

	return &Session{
		Role:        domain.RoleVoter,
		Actor:       actor,
		WorkspaceID: view.Workspace.ID,
	}, nil
}

// DefaultChecks is the fixed priority order; first match wins
func DefaultChecks() []Check {
	return []Check{SuperAdminCheck{}, AdminCheck{}, VoterCheck{}}
}

// Resolver runs the checks against the current store state
type Resolver struct {
	store    *store.Store
	recorder *audit.Recorder
	checks   []Check
	log      *log.Logger
}

// NewResolver creates a resolver using DefaultChecks
func NewResolver(s *store.Store, recorder *audit.Recorder) *Resolver {
	return &Resolver{
		store:    s,
		recorder: recorder,
		checks:   DefaultChecks(),
		log:      logger.Session(),
	}
}

func (r *Resolver) view() View {
	state := r.store.State()
	v := View{SuperAdmin: state.SuperAdminProfile}

	if ws, ok := r.store.ActiveWorkspace(); ok {
		if data, err := r.store.Working(); err == nil {
			v.Workspace = &ws
			v.Data = &data
		}
	}
	return v
}

// Resolve returns the session for creds, or the reason it was refused
func (r *Resolver) Resolve(creds Credentials) (Session, error) {
	view := r.view()

	for _, check := range r.checks {
		if check.Scoped() && view.Workspace == nil {
			return Session{}, ErrSelectWorkspace
		}

		sess, err := check.Match(view, creds)
		if err != nil {
			var rejection *Rejection
			if errors.As(err, &rejection) {
				r.log.Info("Login refused", "check", check.Name(), "actor", rejection.Actor.ID, "reason", rejection.Reason)
				r.journal(rejection.Actor, domain.ActionVoterLoginFail, rejection.Reason.Error())
			}
			return Session{}, err
		}
		if sess == nil {
			continue
		}

		r.log.Info("Login accepted", "check", check.Name(), "actor", sess.Actor.ID, "workspace_id", sess.WorkspaceID)
		r.journalSuccess(*sess)
		return *sess, nil
	}

	r.log.Debug("Login did not match any identity")
	return Session{}, ErrInvalidCredentials
}

func (r *Resolver) journalSuccess(sess Session) {
	switch sess.Role {
	case domain.RoleSuperAdmin:
		if err := r.recorder.RecordGlobal(sess.Actor, domain.ActionSuperAdminLogin, ""); err != nil {
			r.log.Warn("Failed to journal login", "error", err)
		}
	case domain.RoleAdmin:
		r.journal(sess.Actor, domain.ActionAdminLogin, "")
	case domain.RoleVoter:
		r.journal(sess.Actor, domain.ActionVoterLoginSuccess, "")
	}
}

func (r *Resolver) journal(actor domain.Actor, action domain.Action, details string) {
	if err := r.recorder.Record(actor, action, details); err != nil {
		r.log.Warn("Failed to journal login", "action", action, "error", err)
	}
}
