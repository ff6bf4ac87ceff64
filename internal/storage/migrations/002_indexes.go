package migrations

import "gorm.io/gorm"

// migration002Up adds lookup indexes for operational queries
func migration002Up(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_app_states_workspace_ids ON app_states USING GIN (workspace_ids)",
		"CREATE INDEX IF NOT EXISTS idx_app_states_updated_at ON app_states (updated_at DESC)",
	}

	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// migration002Down drops the lookup indexes
func migration002Down(db *gorm.DB) error {
	indexes := []string{
		"DROP INDEX IF EXISTS idx_app_states_workspace_ids",
		"DROP INDEX IF EXISTS idx_app_states_updated_at",
	}

	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
