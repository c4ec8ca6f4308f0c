package period

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownOverride is returned when an override names a period missing from the table
	ErrUnknownOverride = errors.New("override names an unknown period")
	// ErrInvalidOverride is returned for a malformed override
	ErrInvalidOverride = errors.New("invalid override")
)

// Strategy decides between the two periods of an override pair
type Strategy string

const (
	// StrategyPrefer always picks Override.Prefer
	StrategyPrefer Strategy = "prefer"
	// StrategyCutoff picks Override.Before below Override.Cutoff and Override.After from it on
	StrategyCutoff Strategy = "cutoff"
)

// Override resolves a year matched by both periods of a pair
type Override struct {
	Periods  [2]string `yaml:"periods" json:"periods"`
	Strategy Strategy  `yaml:"strategy" json:"strategy"`
	Prefer   string    `yaml:"prefer,omitempty" json:"prefer,omitempty"`
	Cutoff   int       `yaml:"cutoff,omitempty" json:"cutoff,omitempty"`
	Before   string    `yaml:"before,omitempty" json:"before,omitempty"`
	After    string    `yaml:"after,omitempty" json:"after,omitempty"`
}

// Resolve returns the name of the winning period for year
func (o Override) Resolve(year int) string {
	if o.Strategy == StrategyCutoff {
		if year < o.Cutoff {
			return o.Before
		}
		return o.After
	}
	return o.Prefer
}

func (o Override) covers(name string) bool {
	return o.Periods[0] == name || o.Periods[1] == name
}

func (o Override) validate() error {
	a, b := o.Periods[0], o.Periods[1]
	if a == "" || b == "" || a == b {
		return fmt.Errorf("%w: needs two distinct periods, got %q and %q", ErrInvalidOverride, a, b)
	}

	switch o.Strategy {
	case StrategyPrefer:
		if !o.covers(o.Prefer) {
			return fmt.Errorf("%w: prefer %q is not one of %q, %q", ErrInvalidOverride, o.Prefer, a, b)
		}
	case StrategyCutoff:
		if !o.covers(o.Before) || !o.covers(o.After) || o.Before == o.After {
			return fmt.Errorf("%w: cutoff needs before and after from %q, %q", ErrInvalidOverride, a, b)
		}
	default:
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidOverride, o.Strategy)
	}
	return nil
}

// pairKey is order independent
type pairKey struct{ a, b string }

func keyOf(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// Overrides is an ordered set of pair rules. Earlier rules take priority
// when a year matches more than one covered pair.
type Overrides struct {
	rules  []Override
	byPair map[pairKey]int
}

// NewOverrides validates rules and indexes them by their unordered pair
func NewOverrides(rules []Override) (*Overrides, error) {
	o := &Overrides{
		rules:  make([]Override, 0, len(rules)),
		byPair: make(map[pairKey]int, len(rules)),
	}

	for i, r := range rules {
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("override %d: %w", i, err)
		}
		key := keyOf(r.Periods[0], r.Periods[1])
		if _, dup := o.byPair[key]; dup {
			return nil, fmt.Errorf("override %d: %w: pair %q, %q listed twice", i, ErrInvalidOverride, r.Periods[0], r.Periods[1])
		}
		o.byPair[key] = len(o.rules)
		o.rules = append(o.rules, r)
	}

	return o, nil
}

// Lookup returns the rule for a pair in either order
func (o *Overrides) Lookup(a, b string) (Override, bool) {
	if o == nil {
		return Override{}, false
	}
	i, ok := o.byPair[keyOf(a, b)]
	if !ok {
		return Override{}, false
	}
	return o.rules[i], true
}

// Rules returns a copy of the rules in priority order
func (o *Overrides) Rules() []Override {
	if o == nil {
		return nil
	}
	out := make([]Override, len(o.rules))
	copy(out, o.rules)
	return out
}

func (o *Overrides) ordered() []Override {
	if o == nil {
		return nil
	}
	return o.rules
}

// checkAgainst ensures every named period exists in t
func (o *Overrides) checkAgainst(t *Table) error {
	if o == nil {
		return nil
	}
	for i, r := range o.rules {
		for _, name := range r.Periods {
			if _, ok := t.Lookup(name); !ok {
				return fmt.Errorf("override %d: %w: %q", i, ErrUnknownOverride, name)
			}
		}
	}
	return nil
}

// DefaultOverrides returns the rules for the overlaps in DefaultPeriods
func DefaultOverrides() []Override {
	return []Override{
		{
			Periods:  [2]string{"Neolithic Period", "Bronze Age"},
			Strategy: StrategyPrefer,
			Prefer:   "Neolithic Period",
		},
		{
			Periods:  [2]string{"Mongol Invasion and Domination", "Kingdom of Galicia-Volhynia/Ruthenia"},
			Strategy: StrategyCutoff,
			Cutoff:   1300,
			Before:   "Mongol Invasion and Domination",
			After:    "Kingdom of Galicia-Volhynia/Ruthenia",
		},
		{
			Periods:  [2]string{"Kievan Rus' Period", "Kingdom of Galicia-Volhynia/Ruthenia"},
			Strategy: StrategyPrefer,
			Prefer:   "Kievan Rus' Period",
		},
	}
}
