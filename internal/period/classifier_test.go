package period

import (
	"errors"
	"testing"

	"github.com/ppiankov/periodize/internal/model"
)

func TestClassify_DefaultTable(t *testing.T) {
	c := Default()

	tests := []struct {
		desc     string
		year     model.Year
		expected string
	}{
		{"unknown year", model.UnknownYear, "Unknown Period"},
		{"below table", model.YearOf(-2_000_000), "Pre-Paleolithic"},
		{"above table", model.YearOf(2050), "Contemporary Period"},
		{"IV century BC", model.YearOf(-350), "Scythian-Sarmatian Era"},
		{"roman period", model.YearOf(62), "Greek and Roman Period"},
		{"neolithic only", model.YearOf(-5000), "Neolithic Period"},
		{"neolithic over bronze age", model.YearOf(-4000), "Neolithic Period"},
		{"bronze age only", model.YearOf(-2500), "Bronze Age"},
		{"mongol before cutoff", model.YearOf(1250), "Mongol Invasion and Domination"},
		{"galicia from cutoff", model.YearOf(1300), "Kingdom of Galicia-Volhynia / Ruthenia"},
		{"galicia after cutoff", model.YearOf(1320), "Kingdom of Galicia-Volhynia / Ruthenia"},
		{"kievan over galicia", model.YearOf(1200), "Kievan Rus' Period"},
		{"three-way overlap uses first listed override", model.YearOf(1240), "Mongol Invasion and Domination"},
		{"overlap without override uses table order", model.YearOf(650), "Migration Period"},
		{"shared boundary uses table order", model.YearOf(-10_000), "Paleolithic Period"},
		{"display label differs from name", model.YearOf(800), "Early Medieval Period – Bulgar and Khazar Era"},
		{"galicia end overlaps lithuania", model.YearOf(1340), "Kingdom of Galicia-Volhynia / Ruthenia"},
		{"soviet", model.YearOf(1950), "Soviet Period"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := c.Classify(tt.year); got != tt.expected {
				t.Errorf("Expected %q for %s, got %q", tt.expected, tt.year, got)
			}
		})
	}
}

func TestClassify_SingleMatchCoverage(t *testing.T) {
	c := Default()
	periods := c.Table().Periods()

	for y := -20_000; y <= 2_100; y++ {
		var only *model.Period
		count := 0
		for i := range periods {
			if periods[i].Contains(y) {
				count++
				only = &periods[i]
			}
		}
		if count != 1 {
			continue
		}
		if got := c.Classify(model.YearOf(y)); got != only.DisplayLabel() {
			t.Fatalf("Expected %q for %d, got %q", only.DisplayLabel(), y, got)
		}
	}
}

func TestDecide_Outcomes(t *testing.T) {
	c := Default()

	tests := []struct {
		year       model.Year
		outcome    Outcome
		candidates int
	}{
		{model.UnknownYear, OutcomeUnknown, 0},
		{model.YearOf(-2_000_000), OutcomeBelow, 0},
		{model.YearOf(3000), OutcomeAbove, 0},
		{model.YearOf(1950), OutcomeSingle, 1},
		{model.YearOf(-4000), OutcomeOverride, 2},
		{model.YearOf(650), OutcomeFirst, 2},
	}

	for _, tt := range tests {
		t.Run(tt.year.String(), func(t *testing.T) {
			d := c.Decide(tt.year)
			if d.Outcome != tt.outcome {
				t.Errorf("Expected outcome %s, got %s", tt.outcome, d.Outcome)
			}
			if len(d.Candidates) != tt.candidates {
				t.Errorf("Expected %d candidates, got %d", tt.candidates, len(d.Candidates))
			}
			if tt.outcome == OutcomeOverride && d.Override == nil {
				t.Error("Expected override rule to be reported")
			}
		})
	}
}

func TestClassify_GapAndCustomLabels(t *testing.T) {
	table, err := NewTable([]model.Period{
		{Name: "A", Start: 0, End: 10},
		{Name: "B", Start: 20, End: 30, Label: "Bee"},
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	c, err := NewClassifier(table, WithLabels(Labels{Below: "Before A", Above: "After B"}))
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	tests := []struct {
		year     int
		expected string
	}{
		{-1, "Before A"},
		{5, "A"},
		{15, "Unknown Period"},
		{25, "Bee"},
		{31, "After B"},
	}

	for _, tt := range tests {
		if got := c.Classify(model.YearOf(tt.year)); got != tt.expected {
			t.Errorf("Expected %q for %d, got %q", tt.expected, tt.year, got)
		}
	}
}

func TestClassify_OverridePriorityOrder(t *testing.T) {
	table, err := NewTable([]model.Period{
		{Name: "A", Start: 0, End: 100},
		{Name: "B", Start: 50, End: 150},
		{Name: "C", Start: 40, End: 60},
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	overrides, err := NewOverrides([]Override{
		{Periods: [2]string{"C", "B"}, Strategy: StrategyPrefer, Prefer: "C"},
		{Periods: [2]string{"A", "B"}, Strategy: StrategyCutoff, Cutoff: 75, Before: "A", After: "B"},
	})
	if err != nil {
		t.Fatalf("NewOverrides failed: %v", err)
	}

	c, err := NewClassifier(table, WithOverrides(overrides))
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	tests := []struct {
		year     int
		expected string
	}{
		{45, "A"}, // A and C, no rule: table order
		{55, "C"}, // all three: first rule in priority order wins
		{70, "A"}, // A and B before cutoff
		{80, "B"}, // A and B from cutoff on
	}

	for _, tt := range tests {
		if got := c.Classify(model.YearOf(tt.year)); got != tt.expected {
			t.Errorf("Expected %q for %d, got %q", tt.expected, tt.year, got)
		}
	}
}

func TestNewClassifier_Errors(t *testing.T) {
	if _, err := NewClassifier(nil); !errors.Is(err, ErrEmptyTable) {
		t.Errorf("Expected ErrEmptyTable, got %v", err)
	}

	overrides, err := NewOverrides([]Override{
		{Periods: [2]string{"Neolithic Period", "Atlantis"}, Strategy: StrategyPrefer, Prefer: "Atlantis"},
	})
	if err != nil {
		t.Fatalf("NewOverrides failed: %v", err)
	}
	if _, err := NewClassifier(DefaultTable(), WithOverrides(overrides)); !errors.Is(err, ErrUnknownOverride) {
		t.Errorf("Expected ErrUnknownOverride, got %v", err)
	}
}

func TestClassify_Concurrent(t *testing.T) {
	c := Default()
	done := make(chan string, 32)
	for i := 0; i < 32; i++ {
		go func() {
			done <- c.Classify(model.YearOf(1250))
		}()
	}
	for i := 0; i < 32; i++ {
		if got := <-done; got != "Mongol Invasion and Domination" {
			t.Errorf("Expected Mongol Invasion and Domination, got %q", got)
		}
	}
}
