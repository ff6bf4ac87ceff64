package election

import (
	"fmt"
	"slices"
)

// Status is the lifecycle stage of a workspace election
type Status byte

const (
	StatusNotStarted Status = iota
	StatusInProgress
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "NOT_STARTED"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON implements the json.Marshaler interface
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (s *Status) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}

	status, valid := StatusFromString(str)
	if !valid {
		return fmt.Errorf("invalid election status: %s", str)
	}
	*s = status
	return nil
}

// StatusFromString converts a string to a Status
func StatusFromString(s string) (Status, bool) {
	switch s {
	case "NOT_STARTED":
		return StatusNotStarted, true
	case "IN_PROGRESS":
		return StatusInProgress, true
	case "ENDED":
		return StatusEnded, true
	default:
		return StatusNotStarted, false
	}
}

// CanTransitionTo reports whether the normal forward flow allows moving to next.
// Resets back to NOT_STARTED do not go through here.
func (s Status) CanTransitionTo(next Status) bool {
	transitions := map[Status][]Status{
		StatusNotStarted: {StatusInProgress},
		StatusInProgress: {StatusEnded},
		StatusEnded:      {},
	}

	allowed, exists := transitions[s]
	if !exists {
		return false
	}

	return slices.Contains(allowed, next)
}
