// Package extract pulls series observations from the provider incrementally
// and lands them in the long store, one committed series at a time.
package extract

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kholcomb/fredsync/internal/config"
	"github.com/kholcomb/fredsync/internal/database"
	"github.com/kholcomb/fredsync/internal/fred"
)

// Provider is the remote data source for series metadata and observations.
// *fred.Client implements it; tests substitute fakes.
type Provider interface {
	SeriesInfo(ctx context.Context, seriesID string) (*fred.SeriesInfo, error)
	Observations(ctx context.Context, seriesID, startDate string) ([]fred.Observation, error)
}

// SeriesResult is the outcome of extracting one series.
type SeriesResult struct {
	SeriesID string
	Category string
	Records  int
	Err      error
}

// Result holds the outcome of a full extraction run.
type Result struct {
	Series []SeriesResult
}

// Succeeded returns the number of series extracted without error.
func (r *Result) Succeeded() int {
	n := 0
	for _, s := range r.Series {
		if s.Err == nil {
			n++
		}
	}
	return n
}

// Records returns the total observation count fetched across all series.
func (r *Result) Records() int {
	n := 0
	for _, s := range r.Series {
		n += s.Records
	}
	return n
}

// Extractor runs incremental extractions over the configured catalog.
type Extractor struct {
	db           *database.DB
	provider     Provider
	catalog      []config.SeriesGroup
	defaultStart string
	seriesDelay  time.Duration
}

// New creates an extractor for the given catalog.
func New(cfg *config.Config, db *database.DB, provider Provider) *Extractor {
	return &Extractor{
		db:           db,
		provider:     provider,
		catalog:      cfg.Series,
		defaultStart: cfg.StartDate,
		seriesDelay:  time.Duration(cfg.API.SeriesDelayMS) * time.Millisecond,
	}
}

// NextStartDate returns the first date the next fetch for a series must
// request: the day after the stored watermark, or the catalog default start
// date for a series with no stored observations. When the watermark is
// today, the returned date is tomorrow and the fetch is expected to come
// back empty, which is a success.
func (e *Extractor) NextStartDate(seriesID string) (string, error) {
	latest, err := e.db.LatestObservationDate(seriesID)
	if err != nil {
		return "", err
	}
	if latest == "" {
		return e.defaultStart, nil
	}
	return database.NextDay(latest)
}

// ExtractSeries runs one incremental extraction for a single series and
// returns the fetched record count. Provider failures are recorded as
// error-status audit entries; a metadata failure halts the series before the
// observation fetch.
func (e *Extractor) ExtractSeries(ctx context.Context, seriesID string) (int, error) {
	start, err := e.NextStartDate(seriesID)
	if err != nil {
		log.Printf("watermark lookup failed for %s: %v", seriesID, err)
		return 0, err
	}

	info, err := e.provider.SeriesInfo(ctx, seriesID)
	if err != nil {
		e.db.AppendExtractionLog(seriesID, database.StatusError, err.Error())
		return 0, err
	}

	obs, err := e.provider.Observations(ctx, seriesID, start)
	if err != nil {
		e.db.AppendExtractionLog(seriesID, database.StatusError, err.Error())
		return 0, err
	}

	meta := &database.SeriesMetadata{
		ID:          info.ID,
		Title:       info.Title,
		Frequency:   info.Frequency,
		Units:       info.Units,
		LastUpdated: info.LastUpdated,
	}
	stored := make([]database.Observation, len(obs))
	for i, o := range obs {
		stored[i] = database.Observation{Date: o.Date, Value: o.Value}
	}

	// Zero observations means nothing new since the watermark, not a failure.
	message := fmt.Sprintf("%d records from %s", len(obs), start)
	if err := e.db.RecordExtraction(meta, stored, message); err != nil {
		log.Printf("storing extraction for %s: %v", seriesID, err)
		e.db.AppendExtractionLog(seriesID, database.StatusError, err.Error())
		return 0, err
	}

	return len(obs), nil
}

// Run extracts every catalog series in declared order, pausing between
// series for rate-limit headroom. A failed series is recorded and its
// siblings continue; only context cancellation stops the run early.
func (e *Extractor) Run(ctx context.Context) *Result {
	r := &Result{}

	for _, group := range e.catalog {
		log.Printf("category %s: %d series", group.Category, len(group.IDs))

		for _, seriesID := range group.IDs {
			if ctx.Err() != nil {
				return r
			}

			count, err := e.ExtractSeries(ctx, seriesID)
			if err != nil {
				log.Printf("%s: %v", seriesID, err)
			} else {
				log.Printf("%s: %d records stored", seriesID, count)
			}
			r.Series = append(r.Series, SeriesResult{
				SeriesID: seriesID,
				Category: group.Category,
				Records:  count,
				Err:      err,
			})

			if e.seriesDelay > 0 {
				select {
				case <-time.After(e.seriesDelay):
				case <-ctx.Done():
					return r
				}
			}
		}
	}

	return r
}
