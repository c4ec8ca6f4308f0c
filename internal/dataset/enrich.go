package dataset

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/periodize/internal/model"
	"github.com/ppiankov/periodize/internal/worker"
)

// Columns names the input column and the three output columns
type Columns struct {
	Date       string
	Normalized string
	Year       string
	Period     string
}

// ColumnsFromConfig reads column names from the dataset config
func ColumnsFromConfig(cfg model.DatasetConfig) Columns {
	return Columns{
		Date:       cfg.DateColumn,
		Normalized: cfg.NormalizedColumn,
		Year:       cfg.YearColumn,
		Period:     cfg.PeriodColumn,
	}
}

// EnrichOptions controls an Enrich run
type EnrichOptions struct {
	Columns  Columns
	Workers  int
	Progress worker.ProgressFunc // Optional
}

// Enrich runs every row's dating cell through p and writes the normalized
// text, the timeline year (empty when unknown) and the period into the
// output columns. Row order is preserved. A cancelled ctx aborts the run
// and leaves the table unchanged.
func Enrich(ctx context.Context, t *Table, p worker.Processor, opts EnrichOptions) (*Summary, error) {
	cols := opts.Columns
	dateIdx, ok := t.Column(cols.Date)
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrMissingColumn, cols.Date, t.Header)
	}

	started := time.Now()
	raws := make([]string, len(t.Rows))
	for i := range t.Rows {
		raws[i] = t.Cell(i, dateIdx)
	}

	batch := worker.NewBatchProcessor(p, opts.Workers)
	if opts.Progress != nil {
		batch.OnProgress(opts.Progress)
	}
	results := batch.ProcessRows(ctx, raws)

	for _, r := range results {
		if r.Error != nil {
			return nil, fmt.Errorf("row %d: %w", r.Index+1, r.Error)
		}
	}

	normIdx := t.ensureColumn(cols.Normalized)
	yearIdx := t.ensureColumn(cols.Year)
	periodIdx := t.ensureColumn(cols.Period)

	summary := NewSummary()
	for _, r := range results {
		row := t.Rows[r.Index]
		row[normIdx] = r.Dating.Normalized
		row[yearIdx] = r.Dating.Year.String()
		row[periodIdx] = r.Dating.Period
		summary.Add(r.Dating)
	}
	summary.Finish(time.Since(started))

	return summary, nil
}
