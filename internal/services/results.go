package services

import (
	"cmp"
	"slices"

	"github.com/gravadigital/urna-api/internal/domain/election"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
	"github.com/gravadigital/urna-api/internal/store"
)

// CandidateResult es el conteo de un candidato
type CandidateResult struct {
	Candidate election.Candidate `json:"candidate"`
	Votes     int                `json:"votes"`
}

// PositionResult es el conteo de una posición. Winners incluye empates.
type PositionResult struct {
	Position   election.Position `json:"position"`
	Candidates []CandidateResult `json:"candidates"`
	Winners    []int             `json:"winners"`
	TotalVotes int               `json:"totalVotes"`
}

// Turnout resume la participación
type Turnout struct {
	Voters  int     `json:"voters"`
	Voted   int     `json:"voted"`
	Percent float64 `json:"percent"`
}

// Results es el escrutinio completo de la elección
type Results struct {
	Election  election.Details `json:"election"`
	Status    election.Status  `json:"status"`
	Published bool             `json:"published"`
	Positions []PositionResult `json:"positions"`
	Turnout   Turnout          `json:"turnout"`
}

// Tally cuenta los votos de un bag
func Tally(d workspace.Data) Results {
	counts := make(map[int]int, len(d.Candidates))
	for _, v := range d.Votes {
		counts[v.CandidateID]++
	}

	results := Results{
		Election:  d.ElectionDetails,
		Status:    d.ElectionStatus,
		Published: d.ResultsPublished,
		Positions: make([]PositionResult, 0, len(d.Positions)),
	}

	for _, p := range d.Positions {
		pr := PositionResult{Position: p, Candidates: []CandidateResult{}, Winners: []int{}}
		for _, c := range d.Candidates {
			if c.PositionID != p.ID {
				continue
			}
			pr.Candidates = append(pr.Candidates, CandidateResult{Candidate: c, Votes: counts[c.ID]})
			pr.TotalVotes += counts[c.ID]
		}
		slices.SortStableFunc(pr.Candidates, func(a, b CandidateResult) int {
			if a.Votes != b.Votes {
				return cmp.Compare(b.Votes, a.Votes)
			}
			return cmp.Compare(a.Candidate.ID, b.Candidate.ID)
		})

		if seats := min(p.MaxVotes, len(pr.Candidates)); seats > 0 {
			threshold := pr.Candidates[seats-1].Votes
			for _, cr := range pr.Candidates {
				if cr.Votes > 0 && cr.Votes >= threshold {
					pr.Winners = append(pr.Winners, cr.Candidate.ID)
				}
			}
		}
		results.Positions = append(results.Positions, pr)
	}

	results.Turnout.Voters = len(d.Voters)
	for _, v := range d.Voters {
		if v.HasVoted {
			results.Turnout.Voted++
		}
	}
	if results.Turnout.Voters > 0 {
		results.Turnout.Percent = float64(results.Turnout.Voted) * 100 / float64(results.Turnout.Voters)
	}
	return results
}

// ResultsService expone el escrutinio de la elección activa
type ResultsService struct {
	store *store.Store
}

// NewResultsService crea una nueva instancia del servicio de resultados
func NewResultsService(s *store.Store) *ResultsService {
	return &ResultsService{store: s}
}

// Current obtiene el escrutinio en cualquier etapa, para la administración
func (s *ResultsService) Current() (Results, error) {
	d, err := s.store.Working()
	if err != nil {
		return Results{}, err
	}
	return Tally(d), nil
}

// Public obtiene el escrutinio solo si fue publicado
func (s *ResultsService) Public() (Results, error) {
	d, err := s.store.Working()
	if err != nil {
		return Results{}, err
	}
	if d.ElectionStatus != election.StatusEnded || !d.ResultsPublished {
		return Results{}, ErrResultsNotPublished
	}
	return Tally(d), nil
}

// ForWorkspace obtiene el escrutinio de cualquier espacio, para el Super Admin
func (s *ResultsService) ForWorkspace(id string) (Results, error) {
	d, err := s.store.WorkspaceData(id)
	if err != nil {
		return Results{}, err
	}
	return Tally(d), nil
}
