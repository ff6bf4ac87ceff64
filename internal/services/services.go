package services

import (
	"errors"
	"fmt"

	"github.com/gravadigital/urna-api/internal/audit"
	domain "github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
	"github.com/gravadigital/urna-api/internal/store"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation failed")
	ErrConflict             = errors.New("conflict")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrElectionRunning      = errors.New("not allowed while the election is in progress")
	ErrVotingClosed         = errors.New("election not in progress")
	ErrAccountBlocked       = errors.New("account blocked")
	ErrAlreadyVoted         = errors.New("already voted")
	ErrResultsNotPublished  = errors.New("results not published")
)

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

func notFound(kind string, id any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, kind, id)
}

// journal crea una entrada de auditoría y la agrega al bag dentro de la misma mutación
func journal(rec *audit.Recorder, d *workspace.Data, actor domain.Actor, action domain.Action, details string) error {
	entry, err := rec.Entry(actor, action, details)
	if err != nil {
		return err
	}
	d.Record(entry)
	return nil
}

// Services agrupa los servicios de negocio que usan los handlers
type Services struct {
	Roster     *RosterService
	Ballot     *BallotService
	Results    *ResultsService
	Workspaces *WorkspaceService
}

// New crea todos los servicios sobre el mismo store y recorder
func New(s *store.Store, rec *audit.Recorder) *Services {
	return &Services{
		Roster:     NewRosterService(s, rec),
		Ballot:     NewBallotService(s, rec),
		Results:    NewResultsService(s),
		Workspaces: NewWorkspaceService(s, rec),
	}
}
