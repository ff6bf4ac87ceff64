package workspace

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/domain/election"
	"github.com/gravadigital/urna-api/internal/domain/profile"
)

// Workspace is an isolated election instance, for example one school
type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Validate checks if the workspace data is valid
func (w *Workspace) Validate() error {
	if strings.TrimSpace(w.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// Data is the per-workspace election bag
type Data struct {
	Positions        []election.Position  `json:"positions"`
	Candidates       []election.Candidate `json:"candidates"`
	Voters           []election.Voter     `json:"voters"`
	Votes            []election.Vote      `json:"votes"`
	ElectionStatus   election.Status      `json:"electionStatus"`
	ElectionDetails  election.Details     `json:"electionDetails"`
	AdminProfile     *profile.Profile     `json:"adminProfile,omitempty"`
	AuditLog         []audit.Entry        `json:"auditLog"`
	ResultsPublished bool                 `json:"resultsPublished"`
}

// DefaultData is the bag a workspace gets the first time it is accessed
func DefaultData() Data {
	return Data{
		Positions:       []election.Position{},
		Candidates:      []election.Candidate{},
		Voters:          []election.Voter{},
		Votes:           []election.Vote{},
		ElectionStatus:  election.StatusNotStarted,
		ElectionDetails: election.DefaultDetails(),
		AuditLog:        []audit.Entry{},
	}
}

// UnmarshalJSON decodes on top of the defaults so absent fields keep them
func (d *Data) UnmarshalJSON(b []byte) error {
	type plain Data
	aux := plain(DefaultData())
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*d = Data(aux)
	d.Normalize()
	return nil
}

// Normalize replaces nil collections with empty ones
func (d *Data) Normalize() {
	if d.Positions == nil {
		d.Positions = []election.Position{}
	}
	if d.Candidates == nil {
		d.Candidates = []election.Candidate{}
	}
	if d.Voters == nil {
		d.Voters = []election.Voter{}
	}
	if d.Votes == nil {
		d.Votes = []election.Vote{}
	}
	if d.AuditLog == nil {
		d.AuditLog = []audit.Entry{}
	}
}

// Validate checks the bag's records and the references between them. Every
// vote must point at an existing voter, candidate and position, and a voter has
// votes exactly when hasVoted is set.
func (d *Data) Validate() error {
	positions := make(map[int]struct{}, len(d.Positions))
	for i := range d.Positions {
		p := &d.Positions[i]
		if err := p.Validate(); err != nil {
			return fmt.Errorf("positions[%d]: %w", i, err)
		}
		if _, dup := positions[p.ID]; dup {
			return fmt.Errorf("positions[%d]: duplicate id %d", i, p.ID)
		}
		positions[p.ID] = struct{}{}
	}

	candidates := make(map[int]int, len(d.Candidates))
	for i := range d.Candidates {
		c := &d.Candidates[i]
		if err := c.Validate(); err != nil {
			return fmt.Errorf("candidates[%d]: %w", i, err)
		}
		if _, dup := candidates[c.ID]; dup {
			return fmt.Errorf("candidates[%d]: duplicate id %d", i, c.ID)
		}
		if _, ok := positions[c.PositionID]; !ok {
			return fmt.Errorf("candidates[%d]: unknown positionId %d", i, c.PositionID)
		}
		candidates[c.ID] = c.PositionID
	}

	voters := make(map[string]bool, len(d.Voters))
	for i := range d.Voters {
		v := &d.Voters[i]
		if err := v.Validate(); err != nil {
			return fmt.Errorf("voters[%d]: %w", i, err)
		}
		key := strings.ToUpper(v.ID)
		if _, dup := voters[key]; dup {
			return fmt.Errorf("voters[%d]: duplicate id %q", i, v.ID)
		}
		voters[key] = v.HasVoted
	}

	voted := make(map[string]struct{}, len(voters))
	for i, vote := range d.Votes {
		key := strings.ToUpper(vote.VoterID)
		if _, ok := voters[key]; !ok {
			return fmt.Errorf("votes[%d]: unknown voterId %q", i, vote.VoterID)
		}
		positionID, ok := candidates[vote.CandidateID]
		if !ok {
			return fmt.Errorf("votes[%d]: unknown candidateId %d", i, vote.CandidateID)
		}
		if positionID != vote.PositionID {
			return fmt.Errorf("votes[%d]: candidate %d does not stand for position %d", i, vote.CandidateID, vote.PositionID)
		}
		voted[key] = struct{}{}
	}

	for i, v := range d.Voters {
		if _, ok := voted[strings.ToUpper(v.ID)]; ok != v.HasVoted {
			return fmt.Errorf("voters[%d]: hasVoted is %t but %d votes are recorded", i, v.HasVoted, countVotes(d.Votes, v.ID))
		}
	}
	return nil
}

func countVotes(votes []election.Vote, voterID string) int {
	n := 0
	for _, vote := range votes {
		if strings.EqualFold(vote.VoterID, voterID) {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of d
func (d Data) Clone() Data {
	out := d

	out.Positions = make([]election.Position, len(d.Positions))
	for i, p := range d.Positions {
		if p.AssociatedClass != nil {
			class := *p.AssociatedClass
			p.AssociatedClass = &class
		}
		out.Positions[i] = p
	}

	out.Candidates = append([]election.Candidate{}, d.Candidates...)
	out.Voters = append([]election.Voter{}, d.Voters...)
	out.Votes = append([]election.Vote{}, d.Votes...)
	out.AuditLog = append([]audit.Entry{}, d.AuditLog...)

	if d.ElectionDetails.EndTime != nil {
		end := *d.ElectionDetails.EndTime
		out.ElectionDetails.EndTime = &end
	}
	if d.AdminProfile != nil {
		admin := *d.AdminProfile
		out.AdminProfile = &admin
	}
	return out
}

// Position looks up a position by id
func (d *Data) Position(id int) (election.Position, bool) {
	for _, p := range d.Positions {
		if p.ID == id {
			return p, true
		}
	}
	return election.Position{}, false
}

// Candidate looks up a candidate by id
func (d *Data) Candidate(id int) (election.Candidate, bool) {
	for _, c := range d.Candidates {
		if c.ID == id {
			return c, true
		}
	}
	return election.Candidate{}, false
}

// VoterIndex finds a voter by case-insensitive id; -1 when absent
func (d *Data) VoterIndex(id string) int {
	for i, v := range d.Voters {
		if strings.EqualFold(v.ID, id) {
			return i
		}
	}
	return -1
}

// Record prepends an audit entry to the workspace journal
func (d *Data) Record(entry audit.Entry) {
	d.AuditLog = audit.Prepend(d.AuditLog, entry)
}
