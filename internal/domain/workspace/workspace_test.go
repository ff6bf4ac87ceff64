package workspace

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/urna-api/internal/domain/election"
	"github.com/gravadigital/urna-api/internal/domain/profile"
)

func seed() profile.Profile {
	return profile.DefaultSuperAdmin("superadmin", "secret")
}

func TestDataUnmarshalFillsDefaults(t *testing.T) {
	var d Data
	require.NoError(t, json.Unmarshal([]byte(`{"positions":[{"id":1,"name":"President","maxVotes":1,"type":"GENERAL","associatedClass":null}],"extra":"ignored"}`), &d))

	assert.Len(t, d.Positions, 1)
	assert.NotNil(t, d.Candidates)
	assert.NotNil(t, d.Voters)
	assert.NotNil(t, d.Votes)
	assert.NotNil(t, d.AuditLog)
	assert.Equal(t, election.StatusNotStarted, d.ElectionStatus)
	assert.Equal(t, election.DefaultDetails(), d.ElectionDetails)
	assert.Nil(t, d.AdminProfile)
}

func TestDataCloneIsDeep(t *testing.T) {
	class := "10A"
	end := int64(1000)
	d := DefaultData()
	d.Positions = append(d.Positions, election.Position{ID: 1, Name: "Monitor", MaxVotes: 1, Type: election.PositionClassSpecific, AssociatedClass: &class})
	d.Voters = append(d.Voters, election.Voter{ID: "v1"})
	d.ElectionDetails.EndTime = &end
	d.AdminProfile = &profile.Profile{ID: "admin", Name: "Admin", Password: "pw"}

	c := d.Clone()
	*c.Positions[0].AssociatedClass = "9B"
	c.Voters[0].HasVoted = true
	*c.ElectionDetails.EndTime = 2000
	c.AdminProfile.Password = "changed"

	assert.Equal(t, "10A", *d.Positions[0].AssociatedClass)
	assert.False(t, d.Voters[0].HasVoted)
	assert.Equal(t, int64(1000), *d.ElectionDetails.EndTime)
	assert.Equal(t, "pw", d.AdminProfile.Password)
}

func TestVoterIndexIsCaseInsensitive(t *testing.T) {
	d := DefaultData()
	d.Voters = append(d.Voters, election.Voter{ID: "10A-23-ab12"})

	assert.Equal(t, 0, d.VoterIndex("10a-23-AB12"))
	assert.Equal(t, -1, d.VoterIndex("nobody"))
}

func validData() Data {
	class := "10A"
	d := DefaultData()
	d.Positions = []election.Position{
		{ID: 1, Name: "President", MaxVotes: 1, Type: election.PositionGeneral},
		{ID: 2, Name: "Monitor", MaxVotes: 2, Type: election.PositionClassSpecific, AssociatedClass: &class},
	}
	d.Candidates = []election.Candidate{{ID: 10, Name: "A", PositionID: 1}, {ID: 11, Name: "B", PositionID: 2}}
	d.Voters = []election.Voter{
		{ID: "V1", Name: "Ann", Class: "10A", RollNo: "1", Password: "1", HasVoted: true},
		{ID: "V2", Name: "Bo", Class: "10A", RollNo: "2", Password: "2"},
	}
	d.Votes = []election.Vote{{VoterID: "v1", CandidateID: 10, PositionID: 1}, {VoterID: "v1", CandidateID: 11, PositionID: 2}}
	return d
}

func TestDataValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Data)
	}{
		{"class position without class", func(d *Data) { d.Positions[1].AssociatedClass = nil }},
		{"zero max votes", func(d *Data) { d.Positions[0].MaxVotes = 0 }},
		{"duplicate position", func(d *Data) { d.Positions[1].ID = 1 }},
		{"orphan candidate", func(d *Data) { d.Candidates[0].PositionID = 7 }},
		{"duplicate candidate", func(d *Data) { d.Candidates[1].ID = 10 }},
		{"voter without password", func(d *Data) { d.Voters[1].Password = "" }},
		{"duplicate voter", func(d *Data) { d.Voters[1].ID = "v1" }},
		{"vote from unknown voter", func(d *Data) { d.Votes[0].VoterID = "ghost" }},
		{"vote for unknown candidate", func(d *Data) { d.Votes[0].CandidateID = 99 }},
		{"vote on the wrong position", func(d *Data) { d.Votes[0].PositionID = 2 }},
		{"voted without votes", func(d *Data) { d.Votes = []election.Vote{} }},
		{"votes without hasVoted", func(d *Data) { d.Voters[0].HasVoted = false }},
	}

	valid := validData()
	require.NoError(t, valid.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validData()
			tt.mutate(&d)
			assert.Error(t, d.Validate())
		})
	}
}

func TestAppStateValidateChecksWorkspaceData(t *testing.T) {
	s := Defaults(seed())
	s.Workspaces = []Workspace{{ID: "w1", Name: "North"}}
	d := validData()
	d.Voters[1].HasVoted = true
	s.WorkspaceData["w1"] = d

	assert.ErrorContains(t, s.Validate(), "workspaceData[w1]")
}

func TestAppStateNormalize(t *testing.T) {
	var s AppState
	require.NoError(t, json.Unmarshal([]byte(`{"workspaces":[{"id":"w1","name":"North"}],"workspaceData":{"w1":{}},"theme":"neon","lastWorkspaceId":""}`), &s))

	s.Normalize(seed())

	assert.Equal(t, 1, s.SchemaVersion)
	assert.Equal(t, "superadmin", s.SuperAdminProfile.ID)
	assert.Equal(t, ThemeLight, s.Theme)
	assert.Nil(t, s.LastWorkspaceID)
	assert.NotNil(t, s.SuperAdminAuditLog)
	assert.NotNil(t, s.WorkspaceData["w1"].Votes)
	require.NoError(t, s.Validate())

	require.NoError(t, s.Upgrade())
	assert.Equal(t, SchemaVersion, s.SchemaVersion)
}

func TestAppStateValidate(t *testing.T) {
	s := Defaults(seed())
	s.Workspaces = []Workspace{{ID: "w1", Name: "A"}, {ID: "w1", Name: "B"}}
	assert.Error(t, s.Validate())

	s = Defaults(seed())
	s.SchemaVersion = SchemaVersion + 1
	assert.Error(t, s.Validate())

	s = Defaults(seed())
	s.SuperAdminProfile.Password = ""
	assert.Error(t, s.Validate())
}

func TestAppStateCloneIsDeep(t *testing.T) {
	s := Defaults(seed())
	s.Workspaces = append(s.Workspaces, Workspace{ID: "w1", Name: "North"})
	s.WorkspaceData["w1"] = DefaultData()
	id := "w1"
	s.LastWorkspaceID = &id

	c := s.Clone()
	c.Workspaces[0].Name = "South"
	data := c.WorkspaceData["w1"]
	data.ResultsPublished = true
	c.WorkspaceData["w1"] = data
	*c.LastWorkspaceID = "w2"

	assert.Equal(t, "North", s.Workspaces[0].Name)
	assert.False(t, s.WorkspaceData["w1"].ResultsPublished)
	assert.Equal(t, "w1", *s.LastWorkspaceID)
	assert.Equal(t, s.DataFor("w1"), c.DataFor("missing"))
}
