package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS series_metadata (
    id TEXT PRIMARY KEY,
    title TEXT,
    frequency TEXT,
    units TEXT,
    last_updated TEXT
);

CREATE TABLE IF NOT EXISTS observations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    series_id TEXT NOT NULL,
    date TEXT NOT NULL,
    value REAL,
    UNIQUE (series_id, date)
);

CREATE TABLE IF NOT EXISTS extraction_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    series_id TEXT NOT NULL,
    extracted_at TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('success', 'error')),
    message TEXT
);

-- Wide table: one row per calendar date, one REAL column per series.
-- Series columns are added dynamically as new series appear in the catalog.
CREATE TABLE IF NOT EXISTS fred_data_wide (
    date TEXT PRIMARY KEY
);

-- Calendar shell: every day of the configured range, populated once.
CREATE TABLE IF NOT EXISTS date_shell (
    date TEXT PRIMARY KEY
);

CREATE INDEX IF NOT EXISTS idx_observations_series_date ON observations(series_id, date);
CREATE INDEX IF NOT EXISTS idx_observations_date ON observations(date);
CREATE INDEX IF NOT EXISTS idx_extraction_log_series ON extraction_log(series_id);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
