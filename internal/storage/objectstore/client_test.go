package objectstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "state/default.json", stateKey("default"))
	assert.Equal(t, "backups/urna-backup-1.json", backupKey("urna-backup-1.json"))
	assert.Equal(t, "backups/urna-backup-1.json", backupKey("backups/urna-backup-1.json"))
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	objects := []Object{
		{Name: "old", LastModified: base},
		{Name: "new", LastModified: base.Add(2 * time.Hour)},
		{Name: "mid", LastModified: base.Add(time.Hour)},
	}

	sortNewestFirst(objects)

	assert.Equal(t, "new", objects[0].Name)
	assert.Equal(t, "mid", objects[1].Name)
	assert.Equal(t, "old", objects[2].Name)
}
