// Package roman converts between Roman numerals and integers for the small
// magnitudes that appear in century and millennium references.
package roman

import (
	"errors"
	"fmt"
	"strings"
)

// Max is the largest value the codec accepts in either direction.
const Max = 120

// ErrInvalidNumeral is returned for malformed, non-canonical or out-of-range numerals
var ErrInvalidNumeral = errors.New("invalid roman numeral")

// symbol pairs a numeral fragment with its value, largest first
type symbol struct {
	text  string
	value int
}

var symbols = []symbol{
	{"C", 100},
	{"XC", 90},
	{"L", 50},
	{"XL", 40},
	{"X", 10},
	{"IX", 9},
	{"V", 5},
	{"IV", 4},
	{"I", 1},
}

var letterValues = map[byte]int{
	'I': 1,
	'V': 5,
	'X': 10,
	'L': 50,
	'C': 100,
}

// ToInteger converts a Roman numeral (case-insensitive, surrounding whitespace
// ignored) into its value. Only canonical subtractive spellings in 1..Max are
// accepted, so "IIII" or "IC" fail.
func ToInteger(text string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(text))
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidNumeral)
	}

	total := 0
	for i := 0; i < len(s); i++ {
		v, ok := letterValues[s[i]]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrInvalidNumeral, text)
		}
		if i+1 < len(s) {
			if next, ok := letterValues[s[i+1]]; ok && next > v {
				total -= v
				continue
			}
		}
		total += v
	}

	if total < 1 || total > Max {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidNumeral, text)
	}

	// Round-trip rejects anything that is not the canonical spelling
	if canonical, _ := FromInteger(total); canonical != s {
		return 0, fmt.Errorf("%w: %q is not canonical (want %s)", ErrInvalidNumeral, text, canonical)
	}

	return total, nil
}

// FromInteger encodes n (1..Max) as a canonical Roman numeral
func FromInteger(n int) (string, error) {
	if n < 1 || n > Max {
		return "", fmt.Errorf("%w: %d out of range", ErrInvalidNumeral, n)
	}

	var buf strings.Builder
	for _, sym := range symbols {
		for n >= sym.value {
			buf.WriteString(sym.text)
			n -= sym.value
		}
	}
	return buf.String(), nil
}

// Parse is ToInteger for callers that only care whether a value was extracted
func Parse(text string) (int, bool) {
	n, err := ToInteger(text)
	return n, err == nil
}
