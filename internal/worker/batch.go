package worker

import (
	"context"
	"sync/atomic"

	"github.com/ppiankov/periodize/internal/model"
)

// Processor turns one raw dating string into a result
type Processor interface {
	Process(raw string) model.Dating
}

// RowJob processes the dating cell of one row
type RowJob struct {
	Index     int
	Raw       string
	Processor Processor
}

// Execute executes the row job
func (j *RowJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &RowResult{Index: j.Index, Error: err}
	}
	return &RowResult{
		Index:  j.Index,
		Dating: j.Processor.Process(j.Raw),
	}
}

// RowResult carries the result for one row
type RowResult struct {
	Index  int
	Dating model.Dating
	Error  error
}

// GetError returns the error from the row result
func (r *RowResult) GetError() error {
	return r.Error
}

// ProgressFunc is called after each row with the number done and the total
type ProgressFunc func(done, total int)

// BatchProcessor processes many rows concurrently
type BatchProcessor struct {
	processor   Processor
	concurrency int
	progress    ProgressFunc
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// OnProgress registers a progress callback. It may be called from several
// goroutines at once.
func (b *BatchProcessor) OnProgress(fn ProgressFunc) {
	b.progress = fn
}

// ProcessRows processes every raw string and returns results in input order.
// Rows not processed because ctx was cancelled carry the context error.
func (b *BatchProcessor) ProcessRows(ctx context.Context, raws []string) []RowResult {
	out := make([]RowResult, len(raws))
	if len(raws) == 0 {
		return out
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	var done atomic.Int64
	processor := b.processor
	if b.progress != nil {
		processor = progressProcessor{next: b.processor, done: &done, total: len(raws), fn: b.progress}
	}

	for i, raw := range raws {
		if err := pool.Submit(&RowJob{Index: i, Raw: raw, Processor: processor}); err != nil {
			// cancelled: drop whatever is still queued
			pool.Shutdown()
			break
		}
	}

	filled := make([]bool, len(raws))
	for _, result := range pool.Wait() {
		r := result.(*RowResult)
		out[r.Index] = *r
		filled[r.Index] = true
	}

	// Rows that never reached a worker
	for i := range out {
		if !filled[i] {
			out[i] = RowResult{Index: i, Error: context.Cause(ctx)}
		}
	}

	return out
}

type progressProcessor struct {
	next  Processor
	done  *atomic.Int64
	total int
	fn    ProgressFunc
}

func (p progressProcessor) Process(raw string) model.Dating {
	d := p.next.Process(raw)
	p.fn(int(p.done.Add(1)), p.total)
	return d
}
