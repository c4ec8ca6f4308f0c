package period

import (
	"fmt"

	"github.com/ppiankov/periodize/internal/model"
)

// Labels are returned for years the table cannot place
type Labels struct {
	Unknown string `yaml:"unknown" json:"unknown"` // unknown year, or a gap inside the table span
	Below   string `yaml:"below" json:"below"`     // earlier than every period
	Above   string `yaml:"above" json:"above"`     // later than every period
}

// DefaultLabels returns the built-in boundary labels
func DefaultLabels() Labels {
	return Labels{
		Unknown: "Unknown Period",
		Below:   "Pre-Paleolithic",
		Above:   "Contemporary Period",
	}
}

// Outcome records how a classification was reached
type Outcome string

const (
	OutcomeUnknown  Outcome = "unknown"
	OutcomeBelow    Outcome = "below"
	OutcomeAbove    Outcome = "above"
	OutcomeGap      Outcome = "gap"
	OutcomeSingle   Outcome = "single"
	OutcomeOverride Outcome = "override"
	OutcomeFirst    Outcome = "first-match"
)

// Decision is a classification with its reasoning
type Decision struct {
	Label      string
	Outcome    Outcome
	Candidates []model.Period
	Override   *Override
}

// Classifier assigns period labels to years. It holds only immutable state
// and is safe for concurrent use.
type Classifier struct {
	table     *Table
	overrides *Overrides
	labels    Labels
}

// Option configures a Classifier
type Option func(*Classifier)

// WithOverrides sets the pair rules used when periods overlap
func WithOverrides(o *Overrides) Option {
	return func(c *Classifier) {
		c.overrides = o
	}
}

// WithLabels sets the boundary labels. Empty fields keep their defaults.
func WithLabels(l Labels) Option {
	return func(c *Classifier) {
		if l.Unknown != "" {
			c.labels.Unknown = l.Unknown
		}
		if l.Below != "" {
			c.labels.Below = l.Below
		}
		if l.Above != "" {
			c.labels.Above = l.Above
		}
	}
}

// NewClassifier creates a classifier over table. Overrides must only name
// periods present in the table.
func NewClassifier(table *Table, opts ...Option) (*Classifier, error) {
	if table == nil || table.Len() == 0 {
		return nil, ErrEmptyTable
	}

	c := &Classifier{
		table:  table,
		labels: DefaultLabels(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.overrides.checkAgainst(table); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the classifier for the built-in table and overrides
func Default() *Classifier {
	overrides, err := NewOverrides(DefaultOverrides())
	if err != nil {
		panic(fmt.Sprintf("period: invalid built-in overrides: %v", err))
	}
	c, err := NewClassifier(DefaultTable(), WithOverrides(overrides))
	if err != nil {
		panic(fmt.Sprintf("period: invalid built-in classifier: %v", err))
	}
	return c
}

// Classify returns the period label for year
func (c *Classifier) Classify(year model.Year) string {
	return c.Decide(year).Label
}

// Decide classifies year and reports the candidates and rule involved
func (c *Classifier) Decide(year model.Year) Decision {
	y, ok := year.Value()
	if !ok {
		return Decision{Label: c.labels.Unknown, Outcome: OutcomeUnknown}
	}

	matches := c.table.Matches(y)
	switch len(matches) {
	case 0:
		low, high := c.table.Span()
		switch {
		case y < low:
			return Decision{Label: c.labels.Below, Outcome: OutcomeBelow}
		case y > high:
			return Decision{Label: c.labels.Above, Outcome: OutcomeAbove}
		default:
			return Decision{Label: c.labels.Unknown, Outcome: OutcomeGap}
		}
	case 1:
		return Decision{Label: matches[0].DisplayLabel(), Outcome: OutcomeSingle, Candidates: matches}
	}

	matched := make(map[string]model.Period, len(matches))
	for _, p := range matches {
		matched[p.Name] = p
	}

	for _, rule := range c.overrides.ordered() {
		_, okA := matched[rule.Periods[0]]
		_, okB := matched[rule.Periods[1]]
		if !okA || !okB {
			continue
		}
		winner := matched[rule.Resolve(y)]
		return Decision{Label: winner.DisplayLabel(), Outcome: OutcomeOverride, Candidates: matches, Override: &rule}
	}

	return Decision{Label: matches[0].DisplayLabel(), Outcome: OutcomeFirst, Candidates: matches}
}

// Table returns the classifier's period table
func (c *Classifier) Table() *Table {
	return c.table
}

// Overrides returns the classifier's pair rules, possibly nil
func (c *Classifier) Overrides() *Overrides {
	return c.overrides
}

// Labels returns the boundary labels in effect
func (c *Classifier) Labels() Labels {
	return c.labels
}
