package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/urna-api/internal/domain/election"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
)

func TestTally(t *testing.T) {
	d := workspace.DefaultData()
	d.Positions = []election.Position{
		{ID: 1, Name: "President", MaxVotes: 1, Type: election.PositionGeneral},
		{ID: 2, Name: "Council", MaxVotes: 2, Type: election.PositionGeneral},
		{ID: 3, Name: "Nobody", MaxVotes: 1, Type: election.PositionGeneral},
	}
	d.Candidates = []election.Candidate{
		{ID: 10, Name: "A", PositionID: 1},
		{ID: 11, Name: "B", PositionID: 1},
		{ID: 20, Name: "C", PositionID: 2},
		{ID: 21, Name: "D", PositionID: 2},
		{ID: 22, Name: "E", PositionID: 2},
		{ID: 30, Name: "F", PositionID: 3},
	}
	d.Voters = []election.Voter{{ID: "v1", HasVoted: true}, {ID: "v2", HasVoted: true}, {ID: "v3"}, {ID: "v4"}}
	d.Votes = []election.Vote{
		{VoterID: "v1", CandidateID: 10, PositionID: 1},
		{VoterID: "v2", CandidateID: 11, PositionID: 1},
		{VoterID: "v1", CandidateID: 21, PositionID: 2},
		{VoterID: "v1", CandidateID: 22, PositionID: 2},
		{VoterID: "v2", CandidateID: 22, PositionID: 2},
		{VoterID: "v2", CandidateID: 20, PositionID: 2},
	}

	r := Tally(d)
	require.Len(t, r.Positions, 3)

	president := r.Positions[0]
	assert.Equal(t, 2, president.TotalVotes)
	assert.Equal(t, []int{10, 11}, president.Winners, "ties are all winners")

	council := r.Positions[1]
	assert.Equal(t, 22, council.Candidates[0].Candidate.ID)
	assert.Equal(t, 2, council.Candidates[0].Votes)
	assert.Equal(t, []int{22, 20, 21}, council.Winners, "tie at the last seat")

	assert.Empty(t, r.Positions[2].Winners)
	assert.Equal(t, Turnout{Voters: 4, Voted: 2, Percent: 50}, r.Turnout)
}

func TestPublicResultsAreGated(t *testing.T) {
	s, svc := newServices(t)

	_, err := svc.Results.Public()
	assert.ErrorIs(t, err, ErrResultsNotPublished)

	seed(t, s, func(d *workspace.Data) {
		d.ElectionStatus = election.StatusEnded
		d.ResultsPublished = true
	})
	r, err := svc.Results.Public()
	require.NoError(t, err)
	assert.True(t, r.Published)

	current, err := svc.Results.Current()
	require.NoError(t, err)
	assert.Equal(t, r, current)
}
