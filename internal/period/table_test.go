package period

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/periodize/internal/model"
)

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		desc    string
		periods []model.Period
		wantErr error
	}{
		{"empty", nil, ErrEmptyTable},
		{"start after end", []model.Period{{Name: "A", Start: 10, End: 0}}, ErrInvalidRange},
		{"duplicate", []model.Period{{Name: "A", Start: 0, End: 1}, {Name: "A", Start: 2, End: 3}}, ErrDuplicatePeriod},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := NewTable(tt.periods)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := NewTable([]model.Period{{Name: "  ", Start: 0, End: 1}}); err == nil {
		t.Error("Expected error for blank name")
	}
}

func TestTable_IsImmutable(t *testing.T) {
	input := DefaultPeriods()
	table, err := NewTable(input)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	input[0].Name = "changed"
	out := table.Periods()
	out[1].Name = "changed too"

	again := table.Periods()
	if again[0].Name != "Paleolithic Period" || again[1].Name != "Mesolithic / Epipaleolithic" {
		t.Errorf("Expected table to be unaffected by caller mutation, got %q and %q", again[0].Name, again[1].Name)
	}
}

func TestTable_SpanAndLookup(t *testing.T) {
	table := DefaultTable()

	if table.Len() != 19 {
		t.Errorf("Expected 19 periods, got %d", table.Len())
	}

	low, high := table.Span()
	if low != -1_400_000 || high != 2030 {
		t.Errorf("Expected span [-1400000, 2030], got [%d, %d]", low, high)
	}

	p, ok := table.Lookup("Bronze Age")
	if !ok || p.Start != -4500 || p.End != -1950 {
		t.Errorf("Expected Bronze Age -4500..-1950, got %+v (found=%v)", p, ok)
	}
	if _, ok := table.Lookup("Atlantis"); ok {
		t.Error("Expected lookup of unknown period to fail")
	}

	matches := table.Matches(1240)
	if len(matches) != 3 {
		t.Fatalf("Expected 3 periods containing 1240, got %d", len(matches))
	}
	if matches[0].Name != "Kievan Rus' Period" {
		t.Errorf("Expected matches in table order, got %q first", matches[0].Name)
	}
}

func TestDefaultTable_StartNotAfterEnd(t *testing.T) {
	for _, p := range DefaultTable().Periods() {
		if p.Start > p.End {
			t.Errorf("Expected start <= end for %s, got %d > %d", p.Name, p.Start, p.End)
		}
	}
}

func TestNewOverrides_Validation(t *testing.T) {
	tests := []struct {
		desc  string
		rules []Override
	}{
		{"same period twice", []Override{{Periods: [2]string{"A", "A"}, Strategy: StrategyPrefer, Prefer: "A"}}},
		{"prefer outside pair", []Override{{Periods: [2]string{"A", "B"}, Strategy: StrategyPrefer, Prefer: "C"}}},
		{"cutoff missing side", []Override{{Periods: [2]string{"A", "B"}, Strategy: StrategyCutoff, Cutoff: 5, Before: "A"}}},
		{"unknown strategy", []Override{{Periods: [2]string{"A", "B"}, Strategy: "nearest"}}},
		{"pair listed twice in reverse", []Override{
			{Periods: [2]string{"A", "B"}, Strategy: StrategyPrefer, Prefer: "A"},
			{Periods: [2]string{"B", "A"}, Strategy: StrategyPrefer, Prefer: "B"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if _, err := NewOverrides(tt.rules); !errors.Is(err, ErrInvalidOverride) {
				t.Errorf("Expected ErrInvalidOverride, got %v", err)
			}
		})
	}
}

func TestOverrides_LookupIsUnordered(t *testing.T) {
	o, err := NewOverrides(DefaultOverrides())
	if err != nil {
		t.Fatalf("NewOverrides failed: %v", err)
	}

	a, okA := o.Lookup("Bronze Age", "Neolithic Period")
	b, okB := o.Lookup("Neolithic Period", "Bronze Age")
	if !okA || !okB || a.Prefer != b.Prefer || a.Prefer != "Neolithic Period" {
		t.Errorf("Expected both orders to find the Neolithic rule, got %+v and %+v", a, b)
	}

	rule, _ := o.Lookup("Kingdom of Galicia-Volhynia/Ruthenia", "Mongol Invasion and Domination")
	if got := rule.Resolve(1299); got != "Mongol Invasion and Domination" {
		t.Errorf("Expected Mongol before 1300, got %q", got)
	}
	if got := rule.Resolve(1300); got != "Kingdom of Galicia-Volhynia/Ruthenia" {
		t.Errorf("Expected Galicia-Volhynia from 1300, got %q", got)
	}

	var none *Overrides
	if _, ok := none.Lookup("A", "B"); ok {
		t.Error("Expected nil overrides to match nothing")
	}
}

func TestParse_RoundTrip(t *testing.T) {
	overrides, err := NewOverrides(DefaultOverrides())
	if err != nil {
		t.Fatalf("NewOverrides failed: %v", err)
	}

	data, err := Marshal(DefaultTable(), overrides)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	table, parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := DefaultPeriods()
	got := table.Periods()
	if len(got) != len(want) {
		t.Fatalf("Expected %d periods, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Period %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	if len(parsed.Rules()) != len(DefaultOverrides()) {
		t.Errorf("Expected %d overrides, got %d", len(DefaultOverrides()), len(parsed.Rules()))
	}
}

func TestLoadFile(t *testing.T) {
	content := `periods:
  - name: Early
    start: -100
    end: 0
  - name: Late
    start: -10
    end: 100
    label: Late Era
overrides:
  - periods: [Early, Late]
    strategy: cutoff
    cutoff: -5
    before: Early
    after: Late
`
	path := filepath.Join(t.TempDir(), "periods.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	table, overrides, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	c, err := NewClassifier(table, WithOverrides(overrides))
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}
	if got := c.Classify(model.YearOf(-7)); got != "Early" {
		t.Errorf("Expected Early before cutoff, got %q", got)
	}
	if got := c.Classify(model.YearOf(-5)); got != "Late Era" {
		t.Errorf("Expected Late Era from cutoff, got %q", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		desc    string
		content string
		wantErr error
	}{
		{"inverted range", "periods:\n  - {name: A, start: 5, end: 1}\n", ErrInvalidRange},
		{"override names unknown period", "periods:\n  - {name: A, start: 0, end: 1}\n  - {name: B, start: 1, end: 2}\noverrides:\n  - {periods: [A, C], strategy: prefer, prefer: A}\n", ErrUnknownOverride},
		{"no periods", "periods: []\n", ErrEmptyTable},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if _, _, err := Parse([]byte(tt.content)); !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, _, err := Parse([]byte("periods:\n  - {name: A, start: 0, end: 1, colour: red}\n")); err == nil || !strings.Contains(err.Error(), "colour") {
		t.Errorf("Expected unknown field error, got %v", err)
	}

	if _, _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
