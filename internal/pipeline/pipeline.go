package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/kholcomb/fredsync/internal/config"
	"github.com/kholcomb/fredsync/internal/database"
	"github.com/kholcomb/fredsync/internal/extract"
	"github.com/kholcomb/fredsync/internal/transform"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps []StepResult
}

// Pipeline runs extraction followed by denormalization.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	provider extract.Provider
}

// New creates a new pipeline.
func New(cfg *config.Config, db *database.DB, provider extract.Provider) *Pipeline {
	return &Pipeline{cfg: cfg, db: db, provider: provider}
}

// Run executes the two-step pipeline. Individual series failures during
// extraction do not stop the transform step; the wide table is rebuilt from
// whatever the long store holds.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{}

	r.Steps = append(r.Steps, p.runExtract(ctx))
	r.Steps = append(r.Steps, p.runTransform())

	return r
}

func (p *Pipeline) runExtract(ctx context.Context) StepResult {
	log.Println("Step 1/2: Extracting series...")
	extractor := extract.New(p.cfg, p.db, p.provider)
	result := extractor.Run(ctx)
	return StepResult{
		Name: "Extract",
		Summary: fmt.Sprintf("%d/%d series extracted, %d observations fetched",
			result.Succeeded(), len(result.Series), result.Records()),
	}
}

func (p *Pipeline) runTransform() StepResult {
	log.Println("Step 2/2: Denormalizing to wide table...")
	transformer := transform.New(p.cfg, p.db)
	summary, err := transformer.Run()
	if err != nil {
		return StepResult{Name: "Transform", Err: err}
	}
	return StepResult{
		Name: "Transform",
		Summary: fmt.Sprintf("%d rows across %d columns (%d new)",
			summary.Rows, summary.Columns, summary.NewColumns),
	}
}
