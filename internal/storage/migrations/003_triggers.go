package migrations

import "gorm.io/gorm"

// migration003Up keeps updated_at honest for writes that bypass GORM
func migration003Up(db *gorm.DB) error {
	statements := []string{
		`CREATE OR REPLACE FUNCTION touch_app_states_updated_at()
        RETURNS TRIGGER AS $$
        BEGIN
            NEW.updated_at = NOW();
            RETURN NEW;
        END;
        $$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS trg_app_states_updated_at ON app_states`,
		`CREATE TRIGGER trg_app_states_updated_at
        BEFORE UPDATE ON app_states
        FOR EACH ROW EXECUTE FUNCTION touch_app_states_updated_at()`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// migration003Down removes the trigger and its function
func migration003Down(db *gorm.DB) error {
	statements := []string{
		`DROP TRIGGER IF EXISTS trg_app_states_updated_at ON app_states`,
		`DROP FUNCTION IF EXISTS touch_app_states_updated_at()`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
