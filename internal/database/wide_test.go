package database

import "testing"

func TestEnsureDateShell(t *testing.T) {
	db := openTestDB(t)

	added, err := db.EnsureDateShell("2024-01-01", "2024-01-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 10 {
		t.Errorf("expected 10 dates added, got %d", added)
	}

	// Repopulation is a no-op.
	added, err = db.EnsureDateShell("2024-01-01", "2024-01-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 0 {
		t.Errorf("expected 0 dates added on second run, got %d", added)
	}

	// Extending the range only adds the new days.
	added, err = db.EnsureDateShell("2024-01-01", "2024-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 5 {
		t.Errorf("expected 5 dates added after extension, got %d", added)
	}

	shell, err := db.DateShell()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shell) != 15 {
		t.Fatalf("expected 15 shell dates, got %d", len(shell))
	}
	if shell[0] != "2024-01-01" || shell[14] != "2024-01-15" {
		t.Errorf("unexpected shell bounds: %s .. %s", shell[0], shell[14])
	}
	for i := 1; i < len(shell); i++ {
		if shell[i] <= shell[i-1] {
			t.Fatalf("shell not in ascending order at %d: %s <= %s", i, shell[i], shell[i-1])
		}
	}
}

func TestEnsureDateShellRejectsInvertedRange(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.EnsureDateShell("2024-02-01", "2024-01-01"); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestEnsureWideColumns(t *testing.T) {
	db := openTestDB(t)

	added, err := db.EnsureWideColumns([]string{"fred_GDP", "fred_UNRATE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 2 {
		t.Errorf("expected 2 columns added, got %d", added)
	}

	// Repeating with an overlapping set only adds the new column.
	added, err = db.EnsureWideColumns([]string{"fred_GDP", "fred_UNRATE", "fred_DGS10"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 1 {
		t.Errorf("expected 1 column added, got %d", added)
	}

	cols, err := db.WideColumns()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols) != 3 {
		t.Errorf("expected 3 columns, got %v", cols)
	}
	for _, c := range cols {
		if c == "date" {
			t.Error("date key must not be reported as a series column")
		}
	}
}

func TestUpsertWideOverwrites(t *testing.T) {
	db := openTestDB(t)

	cols := []string{"fred_GDP"}
	if _, err := db.EnsureWideColumns(cols); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := db.UpsertWide(cols, []WideRow{{Date: "2024-01-01", Values: []*float64{fptr(100)}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := db.UpsertWide(cols, []WideRow{{Date: "2024-01-01", Values: []*float64{fptr(200)}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := db.WideValue("2024-01-01", "fred_GDP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v == nil || *v != 200 {
		t.Errorf("expected overwritten value 200, got %v", v)
	}

	// Nulls overwrite too: fill policy is resolved upstream.
	if err := db.UpsertWide(cols, []WideRow{{Date: "2024-01-01", Values: []*float64{nil}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _ = db.WideValue("2024-01-01", "fred_GDP")
	if v != nil {
		t.Errorf("expected null to overwrite, got %v", *v)
	}
}

func TestUpsertWideLeavesOtherColumnsUntouched(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.EnsureWideColumns([]string{"fred_GDP", "fred_UNRATE"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	both := []string{"fred_GDP", "fred_UNRATE"}
	if err := db.UpsertWide(both, []WideRow{
		{Date: "2024-01-01", Values: []*float64{fptr(100), fptr(3.7)}},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A batch carrying only fred_GDP must not disturb fred_UNRATE.
	if err := db.UpsertWide([]string{"fred_GDP"}, []WideRow{
		{Date: "2024-01-01", Values: []*float64{fptr(150)}},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gdp, _ := db.WideValue("2024-01-01", "fred_GDP")
	unrate, _ := db.WideValue("2024-01-01", "fred_UNRATE")
	if gdp == nil || *gdp != 150 {
		t.Errorf("expected fred_GDP 150, got %v", gdp)
	}
	if unrate == nil || *unrate != 3.7 {
		t.Errorf("expected fred_UNRATE untouched at 3.7, got %v", unrate)
	}
}

func TestUpsertWideRowShapeMismatch(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.EnsureWideColumns([]string{"fred_GDP", "fred_UNRATE"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := db.UpsertWide([]string{"fred_GDP", "fred_UNRATE"}, []WideRow{
		{Date: "2024-01-01", Values: []*float64{fptr(1)}},
	})
	if err == nil {
		t.Error("expected error for row/column arity mismatch")
	}
}

func TestUpsertWideEmptyIsNoop(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpsertWide(nil, nil); err != nil {
		t.Errorf("expected empty upsert to be a no-op, got %v", err)
	}
}
