package services

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/urna-api/internal/audit"
	domain "github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/domain/election"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/store"
	"github.com/gravadigital/urna-api/internal/validation"
)

// RosterService maneja posiciones, candidatos, votantes y detalles de la elección activa
type RosterService struct {
	store     *store.Store
	recorder  *audit.Recorder
	validator validation.RosterValidation
	details   validation.WorkspaceValidation
	log       *log.Logger
}

// NewRosterService crea una nueva instancia del servicio de padrón
func NewRosterService(s *store.Store, rec *audit.Recorder) *RosterService {
	return &RosterService{
		store:     s,
		recorder:  rec,
		validator: validation.RosterValidation{},
		details:   validation.WorkspaceValidation{},
		log:       logger.Service("roster"),
	}
}

// PositionRequest representa una solicitud para crear o editar una posición
type PositionRequest struct {
	Name            string                `json:"name" binding:"required"`
	MaxVotes        int                   `json:"maxVotes"`
	Type            election.PositionType `json:"type"`
	AssociatedClass *string               `json:"associatedClass"`
}

// CandidateRequest representa una solicitud para crear o editar un candidato
type CandidateRequest struct {
	Name       string `json:"name" binding:"required"`
	PositionID int    `json:"positionId" binding:"required"`
	ImageURL   string `json:"imageUrl"`
	Mobile     string `json:"mobile"`
	DOB        string `json:"dob"`
	Manifesto  string `json:"manifesto"`
}

// VoterRequest representa una solicitud para crear o editar un votante
type VoterRequest struct {
	Name     string `json:"name" binding:"required"`
	Class    string `json:"class" binding:"required"`
	RollNo   string `json:"rollNo" binding:"required"`
	Password string `json:"password"`
	ImageURL string `json:"imageUrl"`
}

// DetailsRequest representa una solicitud para editar los detalles de la elección
type DetailsRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	EndTime     *int64 `json:"endTime"`
}

func rosterEditable(d *workspace.Data) error {
	if d.ElectionStatus == election.StatusInProgress {
		return ErrElectionRunning
	}
	return nil
}

// ListPositions obtiene las posiciones de la elección activa
func (s *RosterService) ListPositions() ([]election.Position, error) {
	d, err := s.store.Working()
	if err != nil {
		return nil, err
	}
	return d.Positions, nil
}

func (s *RosterService) buildPosition(id int, req PositionRequest) (election.Position, error) {
	if err := s.validator.ValidatePositionName(req.Name); err != nil {
		return election.Position{}, invalid(err)
	}
	if req.MaxVotes != 0 {
		if err := s.validator.ValidateMaxVotes(req.MaxVotes); err != nil {
			return election.Position{}, invalid(err)
		}
	}

	p := election.Position{
		ID:              id,
		Name:            req.Name,
		MaxVotes:        req.MaxVotes,
		Type:            req.Type,
		AssociatedClass: req.AssociatedClass,
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return election.Position{}, invalid(err)
	}
	return p, nil
}

func positionNameTaken(d *workspace.Data, name string, except int) bool {
	return slices.ContainsFunc(d.Positions, func(p election.Position) bool {
		return p.ID != except && strings.EqualFold(p.Name, name)
	})
}

// CreatePosition crea una nueva posición con el siguiente id disponible
func (s *RosterService) CreatePosition(actor domain.Actor, req PositionRequest) (election.Position, error) {
	var created election.Position
	err := s.store.Mutate(func(d *workspace.Data) error {
		if err := rosterEditable(d); err != nil {
			return err
		}

		id := 1
		for _, p := range d.Positions {
			id = max(id, p.ID+1)
		}
		p, err := s.buildPosition(id, req)
		if err != nil {
			return err
		}
		if positionNameTaken(d, p.Name, 0) {
			return fmt.Errorf("%w: position %q already exists", ErrConflict, p.Name)
		}

		d.Positions = append(d.Positions, p)
		created = p
		return journal(s.recorder, d, actor, domain.ActionPositionCreated, fmt.Sprintf("Position %q (%d)", p.Name, p.ID))
	})
	if err != nil {
		return election.Position{}, err
	}

	s.log.Info("Position created", "position_id", created.ID, "type", created.Type)
	return created, nil
}

// UpdatePosition reemplaza los datos de una posición existente
func (s *RosterService) UpdatePosition(actor domain.Actor, id int, req PositionRequest) (election.Position, error) {
	var updated election.Position
	err := s.store.Mutate(func(d *workspace.Data) error {
		if err := rosterEditable(d); err != nil {
			return err
		}

		idx := slices.IndexFunc(d.Positions, func(p election.Position) bool { return p.ID == id })
		if idx < 0 {
			return notFound("position", id)
		}
		p, err := s.buildPosition(id, req)
		if err != nil {
			return err
		}
		if positionNameTaken(d, p.Name, id) {
			return fmt.Errorf("%w: position %q already exists", ErrConflict, p.Name)
		}

		d.Positions[idx] = p
		updated = p
		return journal(s.recorder, d, actor, domain.ActionPositionUpdated, fmt.Sprintf("Position %q (%d)", p.Name, p.ID))
	})
	if err != nil {
		return election.Position{}, err
	}
	return updated, nil
}

// DeletePosition elimina una posición y, con confirmación, sus candidatos
func (s *RosterService) DeletePosition(actor domain.Actor, id int, confirmed bool) (int, error) {
	var removed int
	err := s.store.Mutate(func(d *workspace.Data) error {
		if err := rosterEditable(d); err != nil {
			return err
		}

		p, ok := d.Position(id)
		if !ok {
			return notFound("position", id)
		}
		if slices.ContainsFunc(d.Votes, func(v election.Vote) bool { return v.PositionID == id }) {
			return fmt.Errorf("%w: position %d has recorded votes", ErrConflict, id)
		}

		kept := d.Candidates[:0:0]
		for _, c := range d.Candidates {
			if c.PositionID == id {
				removed++
				continue
			}
			kept = append(kept, c)
		}
		if removed > 0 && !confirmed {
			return fmt.Errorf("%w: position %q has %d candidates", ErrConfirmationRequired, p.Name, removed)
		}

		d.Candidates = kept
		d.Positions = slices.DeleteFunc(d.Positions, func(p election.Position) bool { return p.ID == id })
		return journal(s.recorder, d, actor, domain.ActionPositionDeleted,
			fmt.Sprintf("Position %q (%d) and %d candidates", p.Name, p.ID, removed))
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("Position deleted", "position_id", id, "candidates_removed", removed)
	return removed, nil
}

// ListCandidates obtiene los candidatos, opcionalmente filtrados por posición
func (s *RosterService) ListCandidates(positionID int) ([]election.Candidate, error) {
	d, err := s.store.Working()
	if err != nil {
		return nil, err
	}
	if positionID == 0 {
		return d.Candidates, nil
	}
	out := make([]election.Candidate, 0)
	for _, c := range d.Candidates {
		if c.PositionID == positionID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *RosterService) buildCandidate(d *workspace.Data, id int, req CandidateRequest) (election.Candidate, error) {
	if err := s.validator.ValidatePersonName(req.Name); err != nil {
		return election.Candidate{}, invalid(err)
	}
	if err := s.validator.ValidateManifesto(req.Manifesto); err != nil {
		return election.Candidate{}, invalid(err)
	}
	if _, ok := d.Position(req.PositionID); !ok {
		return election.Candidate{}, invalid(fmt.Errorf("position %d does not exist", req.PositionID))
	}

	c := election.Candidate{
		ID:         id,
		Name:       strings.TrimSpace(req.Name),
		PositionID: req.PositionID,
		ImageURL:   req.ImageURL,
		Mobile:     strings.TrimSpace(req.Mobile),
		DOB:        strings.TrimSpace(req.DOB),
		Manifesto:  req.Manifesto,
	}
	if err := c.Validate(); err != nil {
		return election.Candidate{}, invalid(err)
	}
	return c, nil
}

// CreateCandidate crea un candidato para una posición existente
func (s *RosterService) CreateCandidate(actor domain.Actor, req CandidateRequest) (election.Candidate, error) {
	var created election.Candidate
	err := s.store.Mutate(func(d *workspace.Data) error {
		if err := rosterEditable(d); err != nil {
			return err
		}

		id := 1
		for _, c := range d.Candidates {
			id = max(id, c.ID+1)
		}
		c, err := s.buildCandidate(d, id, req)
		if err != nil {
			return err
		}

		d.Candidates = append(d.Candidates, c)
		created = c
		return journal(s.recorder, d, actor, domain.ActionCandidateCreated,
			fmt.Sprintf("Candidate %q (%d) for position %d", c.Name, c.ID, c.PositionID))
	})
	if err != nil {
		return election.Candidate{}, err
	}

	s.log.Info("Candidate created", "candidate_id", created.ID, "position_id", created.PositionID)
	return created, nil
}

// UpdateCandidate reemplaza los datos de un candidato
func (s *RosterService) UpdateCandidate(actor domain.Actor, id int, req CandidateRequest) (election.Candidate, error) {
	var updated election.Candidate
	err := s.store.Mutate(func(d *workspace.Data) error {
		if err := rosterEditable(d); err != nil {
			return err
		}

		idx := slices.IndexFunc(d.Candidates, func(c election.Candidate) bool { return c.ID == id })
		if idx < 0 {
			return notFound("candidate", id)
		}
		c, err := s.buildCandidate(d, id, req)
		if err != nil {
			return err
		}
		if c.PositionID != d.Candidates[idx].PositionID && candidateHasVotes(d, id) {
			return fmt.Errorf("%w: candidate %d has recorded votes", ErrConflict, id)
		}

		d.Candidates[idx] = c
		updated = c
		return journal(s.recorder, d, actor, domain.ActionCandidateUpdated, fmt.Sprintf("Candidate %q (%d)", c.Name, c.ID))
	})
	if err != nil {
		return election.Candidate{}, err
	}
	return updated, nil
}

func candidateHasVotes(d *workspace.Data, id int) bool {
	return slices.ContainsFunc(d.Votes, func(v election.Vote) bool { return v.CandidateID == id })
}

// DeleteCandidate elimina un candidato sin votos registrados
func (s *RosterService) DeleteCandidate(actor domain.Actor, id int) error {
	return s.store.Mutate(func(d *workspace.Data) error {
		if err := rosterEditable(d); err != nil {
			return err
		}

		c, ok := d.Candidate(id)
		if !ok {
			return notFound("candidate", id)
		}
		if candidateHasVotes(d, id) {
			return fmt.Errorf("%w: candidate %d has recorded votes", ErrConflict, id)
		}

		d.Candidates = slices.DeleteFunc(d.Candidates, func(c election.Candidate) bool { return c.ID == id })
		return journal(s.recorder, d, actor, domain.ActionCandidateDeleted, fmt.Sprintf("Candidate %q (%d)", c.Name, c.ID))
	})
}

// ListVoters obtiene el padrón de la elección activa
func (s *RosterService) ListVoters() ([]election.Voter, error) {
	d, err := s.store.Working()
	if err != nil {
		return nil, err
	}
	return d.Voters, nil
}

func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return -1
	}, s)
}

// newVoterID deriva el id del votante a partir de curso, número de lista y un sufijo aleatorio
func newVoterID(d *workspace.Data, class, rollNo string) string {
	base := compact(class) + compact(rollNo)
	for {
		id := base + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
		if d.VoterIndex(id) < 0 {
			return id
		}
	}
}

func (s *RosterService) validateVoter(req VoterRequest) error {
	if err := s.validator.ValidatePersonName(req.Name); err != nil {
		return invalid(err)
	}
	if err := s.validator.ValidateClass(req.Class); err != nil {
		return invalid(err)
	}
	if err := s.validator.ValidateRollNo(req.RollNo); err != nil {
		return invalid(err)
	}
	return nil
}

func rollNoTaken(d *workspace.Data, class, rollNo, except string) bool {
	return slices.ContainsFunc(d.Voters, func(v election.Voter) bool {
		return v.ID != except &&
			strings.EqualFold(strings.TrimSpace(v.Class), strings.TrimSpace(class)) &&
			strings.EqualFold(strings.TrimSpace(v.RollNo), strings.TrimSpace(rollNo))
	})
}

// CreateVoter registra un votante; la contraseña por defecto es el número de lista
func (s *RosterService) CreateVoter(actor domain.Actor, req VoterRequest) (election.Voter, error) {
	if err := s.validateVoter(req); err != nil {
		return election.Voter{}, err
	}

	var created election.Voter
	err := s.store.Mutate(func(d *workspace.Data) error {
		if rollNoTaken(d, req.Class, req.RollNo, "") {
			return fmt.Errorf("%w: roll number %s already registered in class %s", ErrConflict, req.RollNo, req.Class)
		}

		v := election.Voter{
			ID:       newVoterID(d, req.Class, req.RollNo),
			Name:     strings.TrimSpace(req.Name),
			Class:    strings.TrimSpace(req.Class),
			RollNo:   strings.TrimSpace(req.RollNo),
			Password: req.Password,
			ImageURL: req.ImageURL,
		}
		if v.Password == "" {
			v.Password = v.RollNo
		}
		if err := v.Validate(); err != nil {
			return invalid(err)
		}

		d.Voters = append(d.Voters, v)
		created = v
		return journal(s.recorder, d, actor, domain.ActionVoterCreated, fmt.Sprintf("Voter %s (%s)", v.ID, v.Name))
	})
	if err != nil {
		return election.Voter{}, err
	}

	s.log.Info("Voter created", "voter_id", created.ID, "class", created.Class)
	return created, nil
}

// UpdateVoter edita un votante; el id y el estado de voto no cambian
func (s *RosterService) UpdateVoter(actor domain.Actor, id string, req VoterRequest) (election.Voter, error) {
	if err := s.validateVoter(req); err != nil {
		return election.Voter{}, err
	}

	var updated election.Voter
	err := s.store.Mutate(func(d *workspace.Data) error {
		idx := d.VoterIndex(id)
		if idx < 0 {
			return notFound("voter", id)
		}
		v := d.Voters[idx]
		if rollNoTaken(d, req.Class, req.RollNo, v.ID) {
			return fmt.Errorf("%w: roll number %s already registered in class %s", ErrConflict, req.RollNo, req.Class)
		}

		v.Name = strings.TrimSpace(req.Name)
		v.Class = strings.TrimSpace(req.Class)
		v.RollNo = strings.TrimSpace(req.RollNo)
		v.ImageURL = req.ImageURL
		if req.Password != "" {
			v.Password = req.Password
		}

		d.Voters[idx] = v
		updated = v
		return journal(s.recorder, d, actor, domain.ActionVoterUpdated, fmt.Sprintf("Voter %s (%s)", v.ID, v.Name))
	})
	if err != nil {
		return election.Voter{}, err
	}
	return updated, nil
}

// DeleteVoter elimina un votante junto con sus votos
func (s *RosterService) DeleteVoter(actor domain.Actor, id string) error {
	var votes int
	err := s.store.Mutate(func(d *workspace.Data) error {
		idx := d.VoterIndex(id)
		if idx < 0 {
			return notFound("voter", id)
		}
		v := d.Voters[idx]

		before := len(d.Votes)
		d.Votes = slices.DeleteFunc(d.Votes, func(vote election.Vote) bool { return vote.VoterID == v.ID })
		votes = before - len(d.Votes)
		d.Voters = slices.Delete(d.Voters, idx, idx+1)

		return journal(s.recorder, d, actor, domain.ActionVoterDeleted,
			fmt.Sprintf("Voter %s (%s), %d votes removed", v.ID, v.Name, votes))
	})
	if err != nil {
		return err
	}

	s.log.Info("Voter deleted", "voter_id", id, "votes_removed", votes)
	return nil
}

// SetVoterBlocked bloquea o desbloquea el acceso de un votante
func (s *RosterService) SetVoterBlocked(actor domain.Actor, id string, blocked bool) (election.Voter, error) {
	var voter election.Voter
	err := s.store.Mutate(func(d *workspace.Data) error {
		idx := d.VoterIndex(id)
		if idx < 0 {
			return notFound("voter", id)
		}
		d.Voters[idx].IsBlocked = blocked
		voter = d.Voters[idx]

		action := domain.ActionVoterUnblocked
		if blocked {
			action = domain.ActionVoterBlocked
		}
		return journal(s.recorder, d, actor, action, fmt.Sprintf("Voter %s (%s)", voter.ID, voter.Name))
	})
	if err != nil {
		return election.Voter{}, err
	}
	return voter, nil
}

// UpdateDetails edita nombre, descripción y hora de cierre mientras la elección no terminó
func (s *RosterService) UpdateDetails(actor domain.Actor, req DetailsRequest) (election.Details, error) {
	if err := s.details.ValidateElectionName(req.Name); err != nil {
		return election.Details{}, invalid(err)
	}
	if err := s.details.ValidateDescription(req.Description); err != nil {
		return election.Details{}, invalid(err)
	}
	if err := validation.ValidateEndTime(req.EndTime, s.store.Now()); err != nil {
		return election.Details{}, invalid(err)
	}

	var details election.Details
	err := s.store.Mutate(func(d *workspace.Data) error {
		if d.ElectionStatus == election.StatusEnded {
			return fmt.Errorf("%w: election has ended", ErrConflict)
		}

		details = election.Details{
			Name:        strings.TrimSpace(req.Name),
			Description: strings.TrimSpace(req.Description),
			EndTime:     req.EndTime,
		}
		if err := details.Validate(); err != nil {
			return invalid(err)
		}
		d.ElectionDetails = details
		return journal(s.recorder, d, actor, domain.ActionDetailsUpdated, fmt.Sprintf("Election %q", details.Name))
	})
	if err != nil {
		return election.Details{}, err
	}
	return details, nil
}
