// Package transform reshapes the long store into the wide table: one row per
// calendar-shell date, one forward-filled column per series.
package transform

import (
	"fmt"
	"log"
	"sort"

	"github.com/kholcomb/fredsync/internal/config"
	"github.com/kholcomb/fredsync/internal/database"
)

// WideFrame is the denormalized result: Rows[i].Values[j] is the value of
// Columns[j] on Rows[i].Date.
type WideFrame struct {
	Columns []string
	Rows    []database.WideRow
}

// BuildWideFrame pivots long rows into a wide frame aligned to the calendar
// shell. Duplicate (date, series) keys collapse to the last-seen value,
// every column is forward-filled independently, and the result is truncated
// at today. The output is deterministic for a given snapshot and shell.
func BuildWideFrame(rows []database.LongRow, calendar []string, prefix, today string) *WideFrame {
	// Dedup keep-last, and collect the series set.
	cells := make(map[string]map[string]*float64)
	seriesSet := make(map[string]struct{})
	for _, r := range rows {
		byDate, ok := cells[r.Date]
		if !ok {
			byDate = make(map[string]*float64)
			cells[r.Date] = byDate
		}
		byDate[r.SeriesID] = r.Value
		seriesSet[r.SeriesID] = struct{}{}
	}

	series := make([]string, 0, len(seriesSet))
	for id := range seriesSet {
		series = append(series, id)
	}
	sort.Strings(series)

	columns := make([]string, len(series))
	for i, id := range series {
		columns[i] = prefix + id
	}

	// Reindex onto the shell in ascending order. Shell dates without any
	// observation get an all-nil row; observation dates outside the shell
	// are dropped.
	shell := make([]string, len(calendar))
	copy(shell, calendar)
	sort.Strings(shell)

	frameRows := make([]database.WideRow, len(shell))
	for i, date := range shell {
		values := make([]*float64, len(series))
		if byDate, ok := cells[date]; ok {
			for j, id := range series {
				if v, ok := byDate[id]; ok {
					values[j] = v
				}
			}
		}
		frameRows[i] = database.WideRow{Date: date, Values: values}
	}

	// Forward-fill each column: the last non-nil value carries until a newer
	// one appears. Dates before a column's first value stay nil.
	last := make([]*float64, len(series))
	for i := range frameRows {
		for j, v := range frameRows[i].Values {
			if v != nil {
				last[j] = v
			} else {
				frameRows[i].Values[j] = last[j]
			}
		}
	}

	// The shell extends years into the future as a fixed scaffold; only
	// rows up to today are materialized.
	cut := sort.SearchStrings(shell, today)
	if cut < len(shell) && shell[cut] == today {
		cut++
	}
	frameRows = frameRows[:cut]

	return &WideFrame{Columns: columns, Rows: frameRows}
}

// Summary describes one transform run.
type Summary struct {
	Rows       int
	Columns    int
	NewColumns int
	ShellAdded int
}

// Transformer materializes the wide table from the current long-store
// snapshot.
type Transformer struct {
	db       *database.DB
	prefix   string
	calendar config.Calendar
}

// New creates a transformer.
func New(cfg *config.Config, db *database.DB) *Transformer {
	return &Transformer{
		db:       db,
		prefix:   cfg.ColumnPrefix,
		calendar: cfg.Calendar,
	}
}

// Run rebuilds the wide frame and merges it into the wide store. An empty
// long store or shell is a no-op, not an error. Column additions happen
// before the row upsert and are idempotent, so a failed batch can simply be
// re-run.
func (t *Transformer) Run() (*Summary, error) {
	shellAdded, err := t.db.EnsureDateShell(t.calendar.Start, t.calendar.End)
	if err != nil {
		return nil, fmt.Errorf("populating date shell: %w", err)
	}
	if shellAdded > 0 {
		log.Printf("date shell: added %d dates (%s..%s)", shellAdded, t.calendar.Start, t.calendar.End)
	}

	rows, err := t.db.LongRows()
	if err != nil {
		return nil, fmt.Errorf("reading long store: %w", err)
	}
	shell, err := t.db.DateShell()
	if err != nil {
		return nil, fmt.Errorf("reading date shell: %w", err)
	}
	if len(rows) == 0 || len(shell) == 0 {
		log.Printf("nothing to transform: %d observations, %d shell dates", len(rows), len(shell))
		return &Summary{ShellAdded: shellAdded}, nil
	}

	frame := BuildWideFrame(rows, shell, t.prefix, database.Today())

	newCols, err := t.db.EnsureWideColumns(frame.Columns)
	if err != nil {
		return nil, fmt.Errorf("evolving wide schema: %w", err)
	}
	if err := t.db.UpsertWide(frame.Columns, frame.Rows); err != nil {
		return nil, fmt.Errorf("writing wide table: %w", err)
	}

	return &Summary{
		Rows:       len(frame.Rows),
		Columns:    len(frame.Columns),
		NewColumns: newCols,
		ShellAdded: shellAdded,
	}, nil
}
