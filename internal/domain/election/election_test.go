package election

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusNotStarted.CanTransitionTo(StatusInProgress))
	assert.True(t, StatusInProgress.CanTransitionTo(StatusEnded))

	assert.False(t, StatusNotStarted.CanTransitionTo(StatusEnded))
	assert.False(t, StatusEnded.CanTransitionTo(StatusInProgress))
	assert.False(t, StatusEnded.CanTransitionTo(StatusNotStarted))
	assert.False(t, StatusInProgress.CanTransitionTo(StatusNotStarted))
}

func TestStatusJSON(t *testing.T) {
	data, err := json.Marshal(StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, `"IN_PROGRESS"`, string(data))

	var s Status
	require.NoError(t, json.Unmarshal([]byte(`"ENDED"`), &s))
	assert.Equal(t, StatusEnded, s)

	assert.Error(t, json.Unmarshal([]byte(`"PAUSED"`), &s))
}

func TestPositionValidate(t *testing.T) {
	class := "10A"
	empty := ""

	tests := []struct {
		name    string
		pos     Position
		wantErr bool
	}{
		{"general", Position{Name: "President", MaxVotes: 1, Type: PositionGeneral}, false},
		{"class specific", Position{Name: "Monitor", MaxVotes: 1, Type: PositionClassSpecific, AssociatedClass: &class}, false},
		{"class specific without class", Position{Name: "Monitor", MaxVotes: 1, Type: PositionClassSpecific}, true},
		{"class specific with blank class", Position{Name: "Monitor", MaxVotes: 1, Type: PositionClassSpecific, AssociatedClass: &empty}, true},
		{"general with class", Position{Name: "President", MaxVotes: 1, Type: PositionGeneral, AssociatedClass: &class}, true},
		{"missing name", Position{MaxVotes: 1, Type: PositionGeneral}, true},
		{"zero max votes", Position{Name: "President", Type: PositionGeneral}, true},
		{"unknown type", Position{Name: "President", MaxVotes: 1, Type: "HOUSE"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pos.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPositionNormalize(t *testing.T) {
	class := " 10A "
	p := Position{Name: " Captain ", Type: PositionGeneral, AssociatedClass: &class}
	p.Normalize()

	assert.Equal(t, "Captain", p.Name)
	assert.Equal(t, 1, p.MaxVotes)
	assert.Nil(t, p.AssociatedClass)
	assert.NoError(t, p.Validate())
}

func TestEligibleFor(t *testing.T) {
	class := "10A"
	general := Position{Type: PositionGeneral}
	specific := Position{Type: PositionClassSpecific, AssociatedClass: &class}

	assert.True(t, general.EligibleFor("9B"))
	assert.True(t, specific.EligibleFor("10a"))
	assert.False(t, specific.EligibleFor("9B"))
}

func TestDetailsEndsAt(t *testing.T) {
	d := DefaultDetails()
	_, ok := d.EndsAt()
	assert.False(t, ok)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d.EndTime = EpochMillis(at)
	got, ok := d.EndsAt()
	assert.True(t, ok)
	assert.True(t, at.Equal(got))
}
