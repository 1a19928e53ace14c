package database

import (
	"fmt"
	"strings"
	"time"
)

// EnsureDateShell populates the calendar shell with every day of
// [start, end], skipping days already present. Returns the number of days
// added. Safe to call before every transform run.
func (db *DB) EnsureDateShell(start, end string) (int, error) {
	from, err := time.Parse("2006-01-02", start)
	if err != nil {
		return 0, fmt.Errorf("parsing shell start %q: %w", start, err)
	}
	to, err := time.Parse("2006-01-02", end)
	if err != nil {
		return 0, fmt.Errorf("parsing shell end %q: %w", end, err)
	}
	if to.Before(from) {
		return 0, fmt.Errorf("shell end %s before start %s", end, start)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin shell population: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO date_shell (date) VALUES (?)")
	if err != nil {
		return 0, fmt.Errorf("preparing shell insert: %w", err)
	}
	defer stmt.Close()

	added := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		res, err := stmt.Exec(d.Format("2006-01-02"))
		if err != nil {
			return 0, fmt.Errorf("inserting shell date: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// DateShell returns the full calendar shell in ascending date order.
func (db *DB) DateShell() ([]string, error) {
	rows, err := db.conn.Query("SELECT date FROM date_shell ORDER BY date")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// WideColumns returns the current column set of the wide table, excluding
// the date key.
func (db *DB) WideColumns() ([]string, error) {
	rows, err := db.conn.Query("PRAGMA table_info(fred_data_wide)")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		// cid, name, type, notnull, dflt_value, pk
		var cid, notNull, pk int
		var name, colType string
		var dflt any
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		if name != "date" {
			cols = append(cols, name)
		}
	}
	return cols, rows.Err()
}

// EnsureWideColumns adds any of the given columns missing from the wide
// table as nullable REAL columns. Check-before-add keeps it idempotent;
// columns are never dropped.
func (db *DB) EnsureWideColumns(cols []string) (int, error) {
	existing, err := db.WideColumns()
	if err != nil {
		return 0, fmt.Errorf("reading wide columns: %w", err)
	}
	have := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		have[c] = struct{}{}
	}

	added := 0
	for _, c := range cols {
		if _, ok := have[c]; ok {
			continue
		}
		stmt := fmt.Sprintf(`ALTER TABLE fred_data_wide ADD COLUMN %s REAL`, quoteIdent(c))
		if _, err := db.conn.Exec(stmt); err != nil {
			return added, fmt.Errorf("adding wide column %s: %w", c, err)
		}
		added++
	}
	return added, nil
}

// UpsertWide merges the denormalized rows into the wide table under one
// transaction. Every given column overwrites the stored value on conflict,
// nulls included; columns outside the list are left untouched.
func (db *DB) UpsertWide(cols []string, rows []WideRow) error {
	if len(cols) == 0 || len(rows) == 0 {
		return nil
	}

	quoted := make([]string, len(cols))
	updates := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
		updates[i] = fmt.Sprintf("%s = excluded.%s", quoted[i], quoted[i])
	}
	query := fmt.Sprintf(
		`INSERT INTO fred_data_wide (date, %s) VALUES (?%s)
		ON CONFLICT(date) DO UPDATE SET %s`,
		strings.Join(quoted, ", "),
		strings.Repeat(", ?", len(cols)),
		strings.Join(updates, ", "),
	)

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin wide upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("preparing wide upsert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(cols)+1)
	for _, r := range rows {
		if len(r.Values) != len(cols) {
			return fmt.Errorf("wide row %s has %d values for %d columns", r.Date, len(r.Values), len(cols))
		}
		args[0] = r.Date
		for i, v := range r.Values {
			args[i+1] = v
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("upserting wide row %s: %w", r.Date, err)
		}
	}

	return tx.Commit()
}

// WideValue reads a single cell of the wide table. Mostly useful for
// inspection and tests.
func (db *DB) WideValue(date, col string) (*float64, error) {
	query := fmt.Sprintf("SELECT %s FROM fred_data_wide WHERE date = ?", quoteIdent(col))
	var v *float64
	if err := db.conn.QueryRow(query, date).Scan(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// quoteIdent quotes a column identifier. Column names come from series ids
// plus the configured prefix, but they still pass through as identifiers and
// cannot be bound as parameters.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
