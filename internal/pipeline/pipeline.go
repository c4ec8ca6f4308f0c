package pipeline

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/ppiankov/periodize/internal/cache"
	"github.com/ppiankov/periodize/internal/dating"
	"github.com/ppiankov/periodize/internal/model"
	"github.com/ppiankov/periodize/internal/period"
)

// Pipeline runs a raw dating string through normalization, year extraction
// and period classification. It is safe for concurrent use.
type Pipeline struct {
	extractor  *dating.Extractor
	classifier *period.Classifier
	memo       *cache.DatingMemo // Optional (nil disables memoization)
	logger     *slog.Logger

	processed atomic.Int64
	memoHits  atomic.Int64
	unknown   atomic.Int64
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithMemo reuses results for repeated raw strings
func WithMemo(m *cache.DatingMemo) Option {
	return func(p *Pipeline) {
		p.memo = m
	}
}

// WithLogger sets the logger used for rows that yield no year
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithExtractor replaces the default rule cascade
func WithExtractor(e *dating.Extractor) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.extractor = e
		}
	}
}

// New creates a pipeline over classifier; nil uses the built-in period table
func New(classifier *period.Classifier, opts ...Option) *Pipeline {
	if classifier == nil {
		classifier = period.Default()
	}

	p := &Pipeline{
		extractor:  dating.NewExtractor(),
		classifier: classifier,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process normalizes raw, extracts its year and assigns a period.
// Unparseable text yields an unknown year and the unknown label, never an error.
func (p *Pipeline) Process(raw string) model.Dating {
	p.processed.Add(1)

	if p.memo != nil {
		if d, ok := p.memo.Get(raw); ok {
			p.memoHits.Add(1)
			if !d.Year.IsKnown() {
				p.unknown.Add(1)
			}
			return d
		}
	}

	normalized := dating.Normalize(raw)
	year, rule := p.extractor.Match(normalized)

	d := model.Dating{
		Raw:        raw,
		Normalized: normalized,
		Year:       year,
		Rule:       rule,
		Period:     p.classifier.Classify(year),
	}

	if !year.IsKnown() {
		p.unknown.Add(1)
		if normalized != "" {
			p.logger.Debug("no year pattern matched", "raw", raw, "normalized", normalized)
		}
	}

	if p.memo != nil {
		p.memo.Put(raw, d)
	}
	return d
}

// Explain processes raw and also reports how the period was chosen
func (p *Pipeline) Explain(raw string) (model.Dating, period.Decision) {
	d := p.Process(raw)
	return d, p.classifier.Decide(d.Year)
}

// RuleNames lists the year patterns in the order they are tried
func (p *Pipeline) RuleNames() []string {
	return p.extractor.RuleNames()
}

// Classifier returns the pipeline's classifier
func (p *Pipeline) Classifier() *period.Classifier {
	return p.classifier
}

// Stats counts the rows a pipeline has processed
type Stats struct {
	Processed int64
	MemoHits  int64
	Unknown   int64
}

// Stats returns a snapshot of the counters
func (p *Pipeline) Stats() Stats {
	return Stats{
		Processed: p.processed.Load(),
		MemoHits:  p.memoHits.Load(),
		Unknown:   p.unknown.Load(),
	}
}

// BuildClassifier loads the configured period table, or the built-in one
// when no file is set, and applies the configured boundary labels
func BuildClassifier(cfg model.PeriodsConfig) (*period.Classifier, error) {
	labels := period.WithLabels(period.Labels{
		Unknown: cfg.UnknownLabel,
		Below:   cfg.BelowLabel,
		Above:   cfg.AboveLabel,
	})

	if cfg.File == "" {
		overrides, err := period.NewOverrides(period.DefaultOverrides())
		if err != nil {
			return nil, fmt.Errorf("built-in overrides: %w", err)
		}
		return period.NewClassifier(period.DefaultTable(), period.WithOverrides(overrides), labels)
	}

	table, overrides, err := period.LoadFile(cfg.File)
	if err != nil {
		return nil, err
	}
	return period.NewClassifier(table, period.WithOverrides(overrides), labels)
}
