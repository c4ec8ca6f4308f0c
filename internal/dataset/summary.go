package dataset

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/periodize/internal/model"
)

// PeriodCount is the number of rows assigned to one period
type PeriodCount struct {
	Period string `json:"period" yaml:"period"`
	Count  int    `json:"count" yaml:"count"`
}

// Summary describes one enrichment run
type Summary struct {
	RunID    string         `json:"run_id" yaml:"run_id"`
	Rows     int            `json:"rows" yaml:"rows"`
	Parsed   int            `json:"parsed" yaml:"parsed"`
	Unknown  int            `json:"unknown" yaml:"unknown"`
	Rules    map[string]int `json:"rules" yaml:"rules"`
	Periods  []PeriodCount  `json:"periods" yaml:"periods"`
	Duration time.Duration  `json:"duration" yaml:"duration"`

	counts map[string]int
}

// NewSummary starts a summary with a fresh run ID
func NewSummary() *Summary {
	return &Summary{
		RunID:  uuid.New().String(),
		Rules:  make(map[string]int),
		counts: make(map[string]int),
	}
}

// Add records one processed row
func (s *Summary) Add(d model.Dating) {
	s.Rows++
	if d.Year.IsKnown() {
		s.Parsed++
		s.Rules[d.Rule]++
	} else {
		s.Unknown++
	}
	s.counts[d.Period]++
}

// Finish builds the period distribution, most frequent first
func (s *Summary) Finish(elapsed time.Duration) {
	s.Duration = elapsed
	s.Periods = make([]PeriodCount, 0, len(s.counts))
	for name, n := range s.counts {
		s.Periods = append(s.Periods, PeriodCount{Period: name, Count: n})
	}
	sort.Slice(s.Periods, func(i, j int) bool {
		if s.Periods[i].Count != s.Periods[j].Count {
			return s.Periods[i].Count > s.Periods[j].Count
		}
		return s.Periods[i].Period < s.Periods[j].Period
	})
}

// ParsedRatio returns the share of rows that yielded a year
func (s *Summary) ParsedRatio() float64 {
	if s.Rows == 0 {
		return 0
	}
	return float64(s.Parsed) / float64(s.Rows)
}
