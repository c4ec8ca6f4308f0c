// Package period maps signed years onto named historical periods.
//
// A Table is an ordered, immutable list of periods that may overlap at their
// boundaries. Order is priority: when several periods contain a year and no
// override covers the pair, the earliest listed period wins.
package period

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/periodize/internal/model"
)

var (
	// ErrEmptyTable is returned when a table has no periods
	ErrEmptyTable = errors.New("period table is empty")
	// ErrInvalidRange is returned when a period starts after it ends
	ErrInvalidRange = errors.New("period start is after its end")
	// ErrDuplicatePeriod is returned when two periods share a name
	ErrDuplicatePeriod = errors.New("duplicate period name")
)

// Table is an ordered set of periods. It is never mutated after NewTable
// returns and may be shared across goroutines.
type Table struct {
	periods []model.Period
	index   map[string]int
	low     int
	high    int
}

// NewTable validates periods and copies them into a table
func NewTable(periods []model.Period) (*Table, error) {
	if len(periods) == 0 {
		return nil, ErrEmptyTable
	}

	t := &Table{
		periods: make([]model.Period, len(periods)),
		index:   make(map[string]int, len(periods)),
		low:     periods[0].Start,
		high:    periods[0].End,
	}

	for i, p := range periods {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("period %d: name is required", i)
		}
		if p.Start > p.End {
			return nil, fmt.Errorf("%w: %s (%d > %d)", ErrInvalidRange, p.Name, p.Start, p.End)
		}
		if _, exists := t.index[p.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePeriod, p.Name)
		}

		t.periods[i] = p
		t.index[p.Name] = i
		t.low = min(t.low, p.Start)
		t.high = max(t.high, p.End)
	}

	return t, nil
}

// Periods returns a copy of the periods in priority order
func (t *Table) Periods() []model.Period {
	out := make([]model.Period, len(t.periods))
	copy(out, t.periods)
	return out
}

// Len returns the number of periods
func (t *Table) Len() int {
	return len(t.periods)
}

// Lookup finds a period by name
func (t *Table) Lookup(name string) (model.Period, bool) {
	i, ok := t.index[name]
	if !ok {
		return model.Period{}, false
	}
	return t.periods[i], true
}

// Span returns the lowest start and the highest end in the table
func (t *Table) Span() (low, high int) {
	return t.low, t.high
}

// Matches returns every period containing year, in table order
func (t *Table) Matches(year int) []model.Period {
	var out []model.Period
	for _, p := range t.periods {
		if p.Contains(year) {
			out = append(out, p)
		}
	}
	return out
}

// DefaultPeriods returns the built-in table for the territory of Ukraine,
// from the Paleolithic to the present
func DefaultPeriods() []model.Period {
	return []model.Period{
		{Name: "Paleolithic Period", Start: -1_400_000, End: -10_000},
		{Name: "Mesolithic / Epipaleolithic", Start: -10_000, End: -7_000},
		{Name: "Pre-Neolithic", Start: -7_000, End: -5_050},
		{Name: "Neolithic Period", Start: -5_050, End: -2_950},
		{Name: "Bronze Age", Start: -4_500, End: -1_950},
		{Name: "Iron Age", Start: -1_950, End: -700},
		{Name: "Scythian-Sarmatian Era", Start: -700, End: -250},
		{Name: "Greek and Roman Period", Start: -250, End: 375},
		{Name: "Migration Period", Start: 370, End: 700},
		{Name: "Early Medieval Period - Bulgar and Khazar Era", Start: 600, End: 900, Label: "Early Medieval Period – Bulgar and Khazar Era"},
		{Name: "Kievan Rus' Period", Start: 839, End: 1240},
		{Name: "Mongol Invasion and Domination", Start: 1239, End: 1400},
		{Name: "Kingdom of Galicia-Volhynia/Ruthenia", Start: 1197, End: 1340, Label: "Kingdom of Galicia-Volhynia / Ruthenia"},
		{Name: "Lithuanian and Polish Period", Start: 1340, End: 1648},
		{Name: "Cossack Hetmanate Period", Start: 1648, End: 1764},
		{Name: "Ukraine under the Russian Empire", Start: 1764, End: 1917},
		{Name: "Ukraine's First Independence", Start: 1917, End: 1921},
		{Name: "Soviet Period", Start: 1921, End: 1991},
		{Name: "Independence Period", Start: 1991, End: 2030},
	}
}

// DefaultTable returns the built-in table
func DefaultTable() *Table {
	t, err := NewTable(DefaultPeriods())
	if err != nil {
		panic(fmt.Sprintf("period: invalid built-in table: %v", err))
	}
	return t
}
