package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kholcomb/fredsync/internal/config"
	"github.com/kholcomb/fredsync/internal/database"
	"github.com/kholcomb/fredsync/internal/fred"
)

type staticProvider struct {
	obs map[string][]fred.Observation
}

func (p *staticProvider) SeriesInfo(ctx context.Context, seriesID string) (*fred.SeriesInfo, error) {
	if _, ok := p.obs[seriesID]; !ok {
		return nil, &fred.NotFoundError{SeriesID: seriesID}
	}
	return &fred.SeriesInfo{ID: seriesID, Title: "Series " + seriesID}, nil
}

func (p *staticProvider) Observations(ctx context.Context, seriesID, startDate string) ([]fred.Observation, error) {
	var out []fred.Observation
	for _, o := range p.obs[seriesID] {
		if startDate == "" || o.Date >= startDate {
			out = append(out, o)
		}
	}
	return out, nil
}

func fptr(v float64) *float64 { return &v }

func TestPipelineRun(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		StartDate:    "2024-01-01",
		ColumnPrefix: "fred_",
		Calendar:     config.Calendar{Start: "2024-01-01", End: "2024-01-31"},
		Series: []config.SeriesGroup{
			{Category: "labor", IDs: []string{"UNRATE", "MISSING"}},
		},
	}
	provider := &staticProvider{obs: map[string][]fred.Observation{
		"UNRATE": {
			{Date: "2024-01-01", Value: fptr(3.7)},
			{Date: "2024-01-08", Value: fptr(3.8)},
		},
	}}

	result := New(cfg, db, provider).Run(context.Background())
	if len(result.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(result.Steps))
	}

	ext := result.Steps[0]
	if ext.Name != "Extract" || ext.Err != nil {
		t.Fatalf("unexpected extract step: %+v", ext)
	}
	if !strings.Contains(ext.Summary, "1/2 series") {
		t.Errorf("expected 1/2 series in summary, got %q", ext.Summary)
	}

	// The transform still runs after an individual series failed.
	tr := result.Steps[1]
	if tr.Name != "Transform" || tr.Err != nil {
		t.Fatalf("unexpected transform step: %+v", tr)
	}

	v, err := db.WideValue("2024-01-10", "fred_UNRATE")
	if err != nil {
		t.Fatalf("reading wide value: %v", err)
	}
	if v == nil || *v != 3.8 {
		t.Errorf("expected forward-filled 3.8, got %v", v)
	}
}
