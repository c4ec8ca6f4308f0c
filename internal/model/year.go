package model

import "strconv"

// Year is a signed calendar year or the explicit unknown value.
// Positive years are AD, negative years are BC with historical counting
// (1 BC is -1).
type Year struct {
	value int
	known bool
}

// UnknownYear is the result for text that no rule could parse
var UnknownYear = Year{}

// YearOf returns a known year
func YearOf(v int) Year {
	return Year{value: v, known: true}
}

// Value returns the year and whether it is known
func (y Year) Value() (int, bool) {
	return y.value, y.known
}

// IsKnown reports whether the year carries a value
func (y Year) IsKnown() bool {
	return y.known
}

// String returns the signed year, or an empty string when unknown.
// This is the form written to the year_for_timeline column.
func (y Year) String() string {
	if !y.known {
		return ""
	}
	return strconv.Itoa(y.value)
}

// Era describes the sign of a year
type Era int

const (
	EraAD Era = 1
	EraBC Era = -1
)

func (e Era) String() string {
	if e == EraBC {
		return "BC"
	}
	return "AD"
}

// Sign applies the era to a magnitude
func (e Era) Sign(magnitude int) int {
	if e == EraBC {
		return -magnitude
	}
	return magnitude
}
