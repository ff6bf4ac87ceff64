package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeExtractsWorkspaceIDs(t *testing.T) {
	header := summarize([]byte(`{"schemaVersion":2,"workspaces":[{"id":"w1","name":"A"},{"id":"w2","name":"B"}]}`))

	assert.Equal(t, 2, header.SchemaVersion)
	assert.Equal(t, []string{"w1", "w2"}, header.workspaceIDs())
}

func TestSummarizeToleratesLegacyBlob(t *testing.T) {
	header := summarize([]byte(`{"workspaces":[]}`))

	assert.Equal(t, 1, header.SchemaVersion)
	assert.Empty(t, header.workspaceIDs())
}
