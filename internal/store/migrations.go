package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Bindings map an interaction trigger to a plugin action
		`CREATE TABLE IF NOT EXISTS bindings (
			id TEXT PRIMARY KEY,
			trigger TEXT NOT NULL,
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Journal of emitted swipes, clicks, gesture changes and mode switches
		`CREATE TABLE IF NOT EXISTS journal (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL CHECK(kind IN ('swipe', 'click', 'gesture', 'performance')),
			gesture TEXT NOT NULL DEFAULT 'NONE',
			slide INTEGER NOT NULL DEFAULT 0,
			detail TEXT NOT NULL DEFAULT '{}',
			occurred_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bindings_trigger ON bindings(trigger)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_occurred_at ON journal(occurred_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
