package election

import (
	"fmt"
	"strings"
	"time"
)

// PositionType decides who may vote for a position
type PositionType string

const (
	PositionGeneral       PositionType = "GENERAL"
	PositionClassSpecific PositionType = "CLASS_SPECIFIC"
)

// Valid reports whether t is one of the known position types
func (t PositionType) Valid() bool {
	return t == PositionGeneral || t == PositionClassSpecific
}

// Position is an office being elected
type Position struct {
	ID              int          `json:"id"`
	Name            string       `json:"name"`
	MaxVotes        int          `json:"maxVotes"`
	Type            PositionType `json:"type"`
	AssociatedClass *string      `json:"associatedClass"`
}

// Normalize fills defaults and drops a class left over on general positions
func (p *Position) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	if p.MaxVotes < 1 {
		p.MaxVotes = 1
	}
	if p.Type == "" {
		p.Type = PositionGeneral
	}
	if p.Type == PositionGeneral {
		p.AssociatedClass = nil
	}
	if p.AssociatedClass != nil {
		class := strings.TrimSpace(*p.AssociatedClass)
		p.AssociatedClass = &class
	}
}

// Validate checks if the position data is valid
func (p *Position) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.MaxVotes < 1 {
		return fmt.Errorf("maxVotes must be at least 1")
	}
	if !p.Type.Valid() {
		return fmt.Errorf("invalid position type: %s", p.Type)
	}
	if p.Type == PositionClassSpecific && (p.AssociatedClass == nil || *p.AssociatedClass == "") {
		return fmt.Errorf("associatedClass is required for class-specific positions")
	}
	if p.Type == PositionGeneral && p.AssociatedClass != nil {
		return fmt.Errorf("associatedClass must be empty for general positions")
	}
	return nil
}

// EligibleFor reports whether a voter of the given class may vote for p
func (p *Position) EligibleFor(class string) bool {
	if p.Type == PositionGeneral {
		return true
	}
	return p.AssociatedClass != nil && strings.EqualFold(*p.AssociatedClass, strings.TrimSpace(class))
}

// Candidate stands for exactly one position
type Candidate struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	PositionID int    `json:"positionId"`
	ImageURL   string `json:"imageUrl"`
	Mobile     string `json:"mobile"`
	DOB        string `json:"dob"`
	Manifesto  string `json:"manifesto"`
}

// Validate checks if the candidate data is valid
func (c *Candidate) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if c.PositionID <= 0 {
		return fmt.Errorf("positionId is required")
	}
	return nil
}

// Voter is a credentialed member of a workspace electorate
type Voter struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Class     string `json:"class"`
	RollNo    string `json:"rollNo"`
	Password  string `json:"password"`
	HasVoted  bool   `json:"hasVoted"`
	ImageURL  string `json:"imageUrl"`
	IsBlocked bool   `json:"isBlocked"`
}

// Validate checks if the voter data is valid
func (v *Voter) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(v.Class) == "" {
		return fmt.Errorf("class is required")
	}
	if strings.TrimSpace(v.RollNo) == "" {
		return fmt.Errorf("rollNo is required")
	}
	if v.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// Vote is one (voter, candidate) selection; a ballot yields one row per selection
type Vote struct {
	VoterID     string    `json:"voterId"`
	CandidateID int       `json:"candidateId"`
	PositionID  int       `json:"positionId"`
	Timestamp   time.Time `json:"timestamp"`
}

// Details describes the election shown to voters. EndTime is epoch milliseconds;
// nil means the election only ends manually.
type Details struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	EndTime     *int64 `json:"endTime"`
}

// DefaultDetails returns the details of a freshly created or reset election
func DefaultDetails() Details {
	return Details{
		Name:        "School Election",
		Description: "",
		EndTime:     nil,
	}
}

// EndsAt returns the end time as a time.Time
func (d Details) EndsAt() (time.Time, bool) {
	if d.EndTime == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*d.EndTime).UTC(), true
}

// Validate checks if the details are valid
func (d *Details) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if d.EndTime != nil && *d.EndTime <= 0 {
		return fmt.Errorf("endTime must be a positive epoch-ms value")
	}
	return nil
}

// EpochMillis converts t to the representation stored in Details.EndTime
func EpochMillis(t time.Time) *int64 {
	ms := t.UnixMilli()
	return &ms
}
