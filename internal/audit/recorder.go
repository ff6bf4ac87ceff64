// Package audit records who did what: one newest-first journal per workspace
// plus a global journal for Super Admin actions.
package audit

import (
	"strings"

	"github.com/charmbracelet/log"

	domain "github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/store"
)

// Recorder appends entries through the store so they are persisted with the state
type Recorder struct {
	store *store.Store
	debug *log.Logger
}

// NewRecorder creates a recorder over s
func NewRecorder(s *store.Store) *Recorder {
	return &Recorder{
		store: s,
		debug: logger.Audit(),
	}
}

// Entry builds an entry stamped with the store clock
func (r *Recorder) Entry(actor domain.Actor, action domain.Action, details string) (domain.Entry, error) {
	return domain.NewEntry(actor, action, details, r.store.Now())
}

// Record appends to the active workspace journal
func (r *Recorder) Record(actor domain.Actor, action domain.Action, details string) error {
	entry, err := r.Entry(actor, action, details)
	if err != nil {
		return err
	}
	return r.store.Mutate(func(d *workspace.Data) error {
		d.Record(entry)
		return nil
	})
}

// RecordGlobal appends to the Super Admin journal
func (r *Recorder) RecordGlobal(actor domain.Actor, action domain.Action, details string) error {
	return r.store.MutateRoot(func(root *workspace.AppState) error {
		return r.AppendGlobal(root, actor, action, details)
	})
}

// AppendGlobal adds an entry to root inside a caller's MutateRoot and mirrors
// it to the debug channel
func (r *Recorder) AppendGlobal(root *workspace.AppState, actor domain.Actor, action domain.Action, details string) error {
	entry, err := r.Entry(actor, action, details)
	if err != nil {
		return err
	}
	root.Record(entry)
	r.debug.Debug("Super admin action", "actor", actor.ID, "action", action, "details", details)
	return nil
}

// Filter narrows a journal listing
type Filter struct {
	Action  domain.Action
	ActorID string
	Role    domain.Role
	Limit   int
}

func (f Filter) match(e domain.Entry) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.ActorID != "" && !strings.EqualFold(e.Actor.ID, f.ActorID) {
		return false
	}
	if f.Role != "" && e.Actor.Role != f.Role {
		return false
	}
	return true
}

// Apply returns the matching entries, keeping newest-first order
func (f Filter) Apply(entries []domain.Entry) []domain.Entry {
	out := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		if !f.match(e) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

// Workspace lists the active workspace journal
func (r *Recorder) Workspace(f Filter) ([]domain.Entry, error) {
	data, err := r.store.Working()
	if err != nil {
		return nil, err
	}
	return f.Apply(data.AuditLog), nil
}

// Global lists the Super Admin journal
func (r *Recorder) Global(f Filter) []domain.Entry {
	return f.Apply(r.store.State().SuperAdminAuditLog)
}
