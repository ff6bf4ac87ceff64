package services

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/urna-api/internal/audit"
	domain "github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/domain/election"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/store"
)

// BallotService maneja la emisión y el reinicio de votos
type BallotService struct {
	store    *store.Store
	recorder *audit.Recorder
	log      *log.Logger
}

// NewBallotService crea una nueva instancia del servicio de votación
func NewBallotService(s *store.Store, rec *audit.Recorder) *BallotService {
	return &BallotService{
		store:    s,
		recorder: rec,
		log:      logger.Service("ballot"),
	}
}

// BallotPosition es una posición por la que el votante puede votar
type BallotPosition struct {
	Position   election.Position    `json:"position"`
	Candidates []election.Candidate `json:"candidates"`
}

// Ballot es la boleta que ve un votante
type Ballot struct {
	VoterID   string           `json:"voterId"`
	VoterName string           `json:"voterName"`
	Election  election.Details `json:"election"`
	Positions []BallotPosition `json:"positions"`
}

// BallotRequest representa las selecciones enviadas: id de posición a ids de candidatos
type BallotRequest struct {
	Selections map[int][]int `json:"selections" binding:"required"`
}

// eligible lista las posiciones con candidatos que corresponden a la clase del votante
func eligible(d *workspace.Data, voter election.Voter) []BallotPosition {
	out := make([]BallotPosition, 0, len(d.Positions))
	for _, p := range d.Positions {
		if !p.EligibleFor(voter.Class) {
			continue
		}
		bp := BallotPosition{Position: p, Candidates: []election.Candidate{}}
		for _, c := range d.Candidates {
			if c.PositionID == p.ID {
				bp.Candidates = append(bp.Candidates, c)
			}
		}
		if len(bp.Candidates) > 0 {
			out = append(out, bp)
		}
	}
	return out
}

func (s *BallotService) checkVoter(d *workspace.Data, voterID string) (int, error) {
	idx := d.VoterIndex(voterID)
	if idx < 0 {
		return -1, notFound("voter", voterID)
	}
	voter := d.Voters[idx]
	switch {
	case voter.IsBlocked:
		return -1, ErrAccountBlocked
	case d.ElectionStatus != election.StatusInProgress:
		return -1, ErrVotingClosed
	case voter.HasVoted:
		return -1, ErrAlreadyVoted
	}
	if end, ok := d.ElectionDetails.EndsAt(); ok && !end.After(s.store.Now()) {
		return -1, ErrVotingClosed
	}
	return idx, nil
}

// Ballot obtiene la boleta del votante
func (s *BallotService) Ballot(voterID string) (Ballot, error) {
	d, err := s.store.Working()
	if err != nil {
		return Ballot{}, err
	}
	idx, err := s.checkVoter(&d, voterID)
	if err != nil {
		return Ballot{}, err
	}
	voter := d.Voters[idx]
	return Ballot{
		VoterID:   voter.ID,
		VoterName: voter.Name,
		Election:  d.ElectionDetails,
		Positions: eligible(&d, voter),
	}, nil
}

// CastBallot registra una boleta completa. Cada posición elegible necesita al
// menos una selección; las repetidas se descartan y se recorta a maxVotes.
// Todas las filas comparten el mismo timestamp.
func (s *BallotService) CastBallot(voterID string, selections map[int][]int) ([]election.Vote, error) {
	var cast []election.Vote
	var actor domain.Actor
	err := s.store.Mutate(func(d *workspace.Data) error {
		idx, err := s.checkVoter(d, voterID)
		if err != nil {
			return err
		}
		voter := d.Voters[idx]
		actor = domain.Actor{ID: voter.ID, Name: voter.Name, Role: domain.RoleVoter}

		ballot := eligible(d, voter)
		for positionID := range selections {
			if !slices.ContainsFunc(ballot, func(bp BallotPosition) bool { return bp.Position.ID == positionID }) {
				return invalid(fmt.Errorf("position %d is not on this ballot", positionID))
			}
		}
		if len(ballot) == 0 {
			return invalid(fmt.Errorf("there is nothing to vote for"))
		}

		now := s.store.Now()
		votes := make([]election.Vote, 0, len(ballot))
		for _, bp := range ballot {
			picked := make([]int, 0, bp.Position.MaxVotes)
			for _, candidateID := range selections[bp.Position.ID] {
				if !slices.ContainsFunc(bp.Candidates, func(c election.Candidate) bool { return c.ID == candidateID }) {
					return invalid(fmt.Errorf("candidate %d does not stand for %q", candidateID, bp.Position.Name))
				}
				if slices.Contains(picked, candidateID) || len(picked) == bp.Position.MaxVotes {
					continue
				}
				picked = append(picked, candidateID)
			}
			if len(picked) == 0 {
				return invalid(fmt.Errorf("select at least one candidate for %q", bp.Position.Name))
			}
			for _, candidateID := range picked {
				votes = append(votes, election.Vote{
					VoterID:     voter.ID,
					CandidateID: candidateID,
					PositionID:  bp.Position.ID,
					Timestamp:   now,
				})
			}
		}

		d.Votes = append(d.Votes, votes...)
		d.Voters[idx].HasVoted = true
		cast = votes
		return journal(s.recorder, d, actor, domain.ActionVoteCast,
			fmt.Sprintf("%d selections across %d positions", len(votes), len(ballot)))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Ballot cast", "voter_id", actor.ID, "rows", len(cast))
	return cast, nil
}

// ResetVoterVote borra los votos de un votante y le permite votar otra vez
func (s *BallotService) ResetVoterVote(actor domain.Actor, voterID string) (int, error) {
	var removed int
	err := s.store.Mutate(func(d *workspace.Data) error {
		idx := d.VoterIndex(voterID)
		if idx < 0 {
			return notFound("voter", voterID)
		}
		voter := d.Voters[idx]

		before := len(d.Votes)
		d.Votes = slices.DeleteFunc(d.Votes, func(v election.Vote) bool { return v.VoterID == voter.ID })
		removed = before - len(d.Votes)
		d.Voters[idx].HasVoted = false

		return journal(s.recorder, d, actor, domain.ActionVoteReset,
			fmt.Sprintf("Voter %s (%s), %d votes removed", voter.ID, voter.Name, removed))
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("Vote reset", "voter_id", voterID, "votes_removed", removed)
	return removed, nil
}
