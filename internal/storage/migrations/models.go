package migrations

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// StateRecord is one persisted application state blob, keyed by install scope
type StateRecord struct {
	Scope         string         `gorm:"type:varchar(100);primaryKey" json:"scope"`
	Payload       datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
	WorkspaceIDs  pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"workspace_ids"`
	SchemaVersion int            `gorm:"not null;default:1" json:"schema_version"`
	Bytes         int            `gorm:"not null;default:0" json:"bytes"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName overrides the table name used by GORM
func (StateRecord) TableName() string {
	return "app_states"
}

// AllModels returns every model managed by the migrations
func AllModels() []any {
	return []any{
		&StateRecord{},
	}
}
