package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

// RecordExtraction applies the result of one successful series extraction
// under a single transaction: the metadata replace, the observation upserts,
// and the success audit entry. A failure rolls back the whole triple so a
// half-written series never lands.
func (db *DB) RecordExtraction(meta *SeriesMetadata, obs []Observation, message string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin extraction for %s: %w", meta.ID, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO series_metadata (id, title, frequency, units, last_updated)
		VALUES (?, ?, ?, ?, ?)`,
		meta.ID, meta.Title, meta.Frequency, meta.Units, meta.LastUpdated,
	); err != nil {
		return fmt.Errorf("upserting metadata for %s: %w", meta.ID, err)
	}

	// Overwrite, never ignore: a re-fetch of an overlapping range must leave
	// the latest provider-reported value in place.
	stmt, err := tx.Prepare(
		`INSERT INTO observations (series_id, date, value) VALUES (?, ?, ?)
		ON CONFLICT(series_id, date) DO UPDATE SET value = excluded.value`,
	)
	if err != nil {
		return fmt.Errorf("preparing observation upsert: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		if _, err := stmt.Exec(meta.ID, o.Date, o.Value); err != nil {
			return fmt.Errorf("upserting observation %s/%s: %w", meta.ID, o.Date, err)
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO extraction_log (series_id, extracted_at, status, message) VALUES (?, ?, ?, ?)`,
		meta.ID, nowUTC(), StatusSuccess, message,
	); err != nil {
		return fmt.Errorf("logging extraction for %s: %w", meta.ID, err)
	}

	return tx.Commit()
}

// AppendExtractionLog appends a best-effort audit entry outside any
// transaction. Used for the error path, where there is nothing else to
// commit. Audit failures must never mask the original problem, so they are
// only reported to the operator log.
func (db *DB) AppendExtractionLog(seriesID, status, message string) {
	_, err := db.conn.Exec(
		`INSERT INTO extraction_log (series_id, extracted_at, status, message) VALUES (?, ?, ?, ?)`,
		seriesID, nowUTC(), status, message,
	)
	if err != nil {
		log.Printf("failed to log extraction for %s: %v", seriesID, err)
	}
}

// LatestObservationDate returns the maximum stored observation date for a
// series, or "" if the series has no observations yet.
func (db *DB) LatestObservationDate(seriesID string) (string, error) {
	var latest sql.NullString
	err := db.conn.QueryRow(
		"SELECT MAX(date) FROM observations WHERE series_id = ?", seriesID,
	).Scan(&latest)
	if err != nil {
		return "", fmt.Errorf("reading watermark for %s: %w", seriesID, err)
	}
	if !latest.Valid {
		return "", nil
	}
	return latest.String, nil
}

// LongRows returns the full long-store snapshot ordered by (date, series,
// insertion order), so that for a duplicated key the later insert is the last
// row seen by the denormalizer.
func (db *DB) LongRows() ([]LongRow, error) {
	rows, err := db.conn.Query(
		"SELECT date, series_id, value FROM observations ORDER BY date, series_id, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LongRow
	for rows.Next() {
		var r LongRow
		if err := rows.Scan(&r.Date, &r.SeriesID, &r.Value); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SeriesList returns all stored series metadata ordered by id.
func (db *DB) SeriesList() ([]SeriesMetadata, error) {
	rows, err := db.conn.Query(
		"SELECT id, title, frequency, units, last_updated FROM series_metadata ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SeriesMetadata
	for rows.Next() {
		var m SeriesMetadata
		if err := rows.Scan(&m.ID, &m.Title, &m.Frequency, &m.Units, &m.LastUpdated); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// RecentExtractions returns the most recent audit entries, newest first.
func (db *DB) RecentExtractions(limit int) ([]ExtractionLogEntry, error) {
	rows, err := db.conn.Query(
		`SELECT id, series_id, extracted_at, status, message
		FROM extraction_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExtractionLogEntry
	for rows.Next() {
		var e ExtractionLogEntry
		if err := rows.Scan(&e.ID, &e.SeriesID, &e.ExtractedAt, &e.Status, &e.Message); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats returns aggregate counts across the long store, the wide store, and
// the audit log.
func (db *DB) Stats() (*Stats, error) {
	s := &Stats{}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM series_metadata").Scan(&s.SeriesCount); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM observations").Scan(&s.ObservationCount); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM fred_data_wide").Scan(&s.WideRowCount); err != nil {
		return nil, err
	}

	var first, last sql.NullString
	if err := db.conn.QueryRow("SELECT MIN(date), MAX(date) FROM observations").Scan(&first, &last); err != nil {
		return nil, err
	}
	s.FirstObservation = first.String
	s.LastObservation = last.String

	rows, err := db.conn.Query("SELECT status, COUNT(*) FROM extraction_log GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		switch status {
		case StatusSuccess:
			s.LogSuccesses = count
		case StatusError:
			s.LogErrors = count
		}
	}
	return s, rows.Err()
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
