package blob

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/domain/election"
	"github.com/gravadigital/urna-api/internal/domain/profile"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
)

var seed = profile.DefaultSuperAdmin("superadmin", "secret")

func sampleState(t *testing.T) *workspace.AppState {
	t.Helper()

	s := workspace.Defaults(seed)
	s.Workspaces = append(s.Workspaces, workspace.Workspace{ID: "w1", Name: "North High"})

	data := workspace.DefaultData()
	data.Positions = append(data.Positions, election.Position{ID: 1, Name: "President", MaxVotes: 1, Type: election.PositionGeneral})
	data.Candidates = append(data.Candidates, election.Candidate{ID: 10, Name: "A", PositionID: 1})
	data.Voters = append(data.Voters, election.Voter{ID: "v1", Name: "Vee", Class: "10A", RollNo: "1", Password: "v1", HasVoted: true})
	now := time.Now().UTC()
	data.Votes = append(data.Votes, election.Vote{VoterID: "v1", CandidateID: 10, PositionID: 1, Timestamp: now})
	entry, err := audit.NewEntry(audit.Actor{ID: "v1", Name: "Vee", Role: audit.RoleVoter}, audit.ActionVoteCast, "", now)
	require.NoError(t, err)
	data.Record(entry)
	s.WorkspaceData["w1"] = data

	id := "w1"
	s.LastWorkspaceID = &id
	s.LastBackupTimestamp = &now
	return s
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	state := sampleState(t)

	data, err := Encode(state)
	require.NoError(t, err)

	decoded, err := Decode(data, seed)
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	inputs := map[string]string{
		"empty":            "",
		"array":            "[]",
		"truncated":        `{"workspaces": [`,
		"wrong type":       `{"workspaces": "nope"}`,
		"bad status":       `{"workspaceData": {"w1": {"electionStatus": "PAUSED"}}}`,
		"duplicate ids":    `{"workspaces": [{"id":"a","name":"A"},{"id":"a","name":"B"}]}`,
		"future version":   `{"schemaVersion": 99}`,
		"nameless profile": `{"superAdminProfile": {"id":"x","password":"y"}}`,
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(input), seed)
			assert.ErrorIs(t, err, ErrMalformedState)
		})
	}
}

func TestDecodeDefaultsMissingFields(t *testing.T) {
	state, err := Decode([]byte(`{"theme":"dark","unknownField":true}`), seed)
	require.NoError(t, err)

	assert.Equal(t, workspace.ThemeDark, state.Theme)
	assert.Equal(t, seed, state.SuperAdminProfile)
	assert.Empty(t, state.Workspaces)
	assert.Equal(t, workspace.SchemaVersion, state.SchemaVersion)
}
