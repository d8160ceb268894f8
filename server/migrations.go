package server

import "fmt"

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		migrationUserData,
	}

	for i, m := range migrations {
		if _, err := r.db.Exec(m); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// boards holds the JSON board list; updated_at is Unix milliseconds
const migrationUserData = `
CREATE TABLE IF NOT EXISTS user_data (
    user_id TEXT PRIMARY KEY,
    boards TEXT NOT NULL,
    updated_at BIGINT NOT NULL
);
`
