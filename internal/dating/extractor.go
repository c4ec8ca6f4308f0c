package dating

import (
	"regexp"

	"github.com/ppiankov/periodize/internal/model"
)

// Rule turns one family of dating expressions into a year.
// Extract receives the whole normalized text (for era fallback) and the
// submatches of Pattern; it returns false when the match cannot be used,
// for example when a captured numeral is not a valid Roman number.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Extract func(text string, m []string) (model.Year, bool)
}

// Extractor evaluates an ordered rule list. The first rule that yields a
// year wins. An Extractor is immutable and safe for concurrent use.
type Extractor struct {
	rules []Rule
}

// NewExtractor creates an extractor over the given rules, or over
// DefaultRules when none are passed
func NewExtractor(rules ...Rule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &Extractor{rules: cp}
}

// Extract returns the representative year for normalized text
func (e *Extractor) Extract(text string) model.Year {
	year, _ := e.Match(text)
	return year
}

// Match returns the year along with the name of the rule that produced it.
// The rule name is empty when the year is unknown.
func (e *Extractor) Match(text string) (model.Year, string) {
	if text == "" {
		return model.UnknownYear, ""
	}

	for _, rule := range e.rules {
		for _, m := range rule.Pattern.FindAllStringSubmatch(text, -1) {
			if year, ok := rule.Extract(text, m); ok {
				return year, rule.Name
			}
		}
	}

	return model.UnknownYear, ""
}

// RuleNames lists the rules in evaluation order
func (e *Extractor) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

var defaultExtractor = NewExtractor()

// ExtractYear runs the default rule cascade over already normalized text
func ExtractYear(text string) model.Year {
	return defaultExtractor.Extract(text)
}
