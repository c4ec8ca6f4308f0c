package dating

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/periodize/internal/model"
	"github.com/ppiankov/periodize/internal/roman"
)

// RomanPeriodYear is the representative year for the Roman Period token
const RomanPeriodYear = 62

// Regex fragments shared by the century families. A century token is a
// Roman numeral or an Arabic ordinal; a part is a quarter, half, beginning,
// middle or end; the glue joins a part to its century ("of the", "-", nothing).
const (
	centuryToken = `([IVXLC]+|\d{1,3}(?:st|nd|rd|th))`
	partToken    = `((?:first|second|third|fourth|last|[1-4](?:st|nd|rd|th))\s*quarter|(?:first|second|1st|2nd)\s*half|beginning|middle|mid|end)`
	partGlue     = `[\s-]*(?:of\s+)?(?:the\s+)?`
	centuryWord  = `\s*centur(?:y|ies)\b`
	eraSuffix    = `(?:\s+(BC|AD)\b)?`
	thousandTail = `\s*thousand\s*(?:years\s+)?(?:and\s+)?(BC|AD)\b`
)

var reBCMarker = regexp.MustCompile(`(?i)\bBC\b`)

// DefaultRules returns the built-in cascade, most specific family first
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "roman-period",
			Pattern: regexp.MustCompile(`(?i)^\s*roman\s+period\s*$`),
			Extract: func(_ string, _ []string) (model.Year, bool) {
				return model.YearOf(RomanPeriodYear), true
			},
		},
		{
			Name:    "thousand-range",
			Pattern: regexp.MustCompile(`(?i)\b([IVXLC]+)-([IVXLC]+)` + thousandTail),
			Extract: func(_ string, m []string) (model.Year, bool) {
				a, b, ok := romanPair(m[1], m[2])
				if !ok {
					return model.UnknownYear, false
				}
				era := eraOf(m[3], "")
				return model.YearOf(era.Sign(mean(1000*a, 1000*b))), true
			},
		},
		{
			Name:    "thousand",
			Pattern: regexp.MustCompile(`(?i)\b([IVXLC]+)` + thousandTail),
			Extract: func(_ string, m []string) (model.Year, bool) {
				n, ok := roman.Parse(m[1])
				if !ok {
					return model.UnknownYear, false
				}
				return model.YearOf(eraOf(m[2], "").Sign(1000 * n)), true
			},
		},
		{
			Name:    "millennium-range",
			Pattern: regexp.MustCompile(`(?i)\b([IVXLC]+)-([IVXLC]+)\s*millenni(?:um|a)\b` + eraSuffix),
			Extract: func(text string, m []string) (model.Year, bool) {
				a, b, ok := romanPair(m[1], m[2])
				if !ok {
					return model.UnknownYear, false
				}
				era := eraOf(m[3], text)
				return model.YearOf(mean(millenniumYear(a, era), millenniumYear(b, era))), true
			},
		},
		{
			Name:    "millennium",
			Pattern: regexp.MustCompile(`(?i)\b([IVXLC]+)\s*millennium\b` + eraSuffix),
			Extract: func(text string, m []string) (model.Year, bool) {
				n, ok := roman.Parse(m[1])
				if !ok {
					return model.UnknownYear, false
				}
				return model.YearOf(millenniumYear(n, eraOf(m[2], text))), true
			},
		},
		{
			Name:    "year-range-era",
			Pattern: regexp.MustCompile(`(?i)\b(\d{1,7})-(\d{1,7})s?\s*(BC|AD)\b`),
			Extract: func(_ string, m []string) (model.Year, bool) {
				return yearRange(m[1], m[2], eraOf(m[3], ""))
			},
		},
		{
			Name:    "year-range-era-prefix",
			Pattern: regexp.MustCompile(`(?i)\b(BC|AD)\s*(\d{1,7})-(\d{1,7})\b`),
			Extract: func(_ string, m []string) (model.Year, bool) {
				return yearRange(m[2], m[3], eraOf(m[1], ""))
			},
		},
		{
			Name:    "year-range-bare",
			Pattern: regexp.MustCompile(`^(\d{1,4})-(\d{1,4})s?$`),
			Extract: func(_ string, m []string) (model.Year, bool) {
				return yearRange(m[1], m[2], model.EraAD)
			},
		},
		{
			Name:    "year-era",
			Pattern: regexp.MustCompile(`(?i)\b(\d{1,7})s?\s*(BC|AD)\b`),
			Extract: func(_ string, m []string) (model.Year, bool) {
				return signedYear(m[1], eraOf(m[2], ""))
			},
		},
		{
			Name:    "year-era-prefix",
			Pattern: regexp.MustCompile(`(?i)\b(BC|AD)\s*(\d{1,7})\b`),
			Extract: func(_ string, m []string) (model.Year, bool) {
				return signedYear(m[2], eraOf(m[1], ""))
			},
		},
		{
			Name:    "century-range",
			Pattern: regexp.MustCompile(`(?i)\b([IVXLC]+)-([IVXLC]+)` + centuryWord + eraSuffix),
			Extract: func(text string, m []string) (model.Year, bool) {
				a, b, ok := romanPair(m[1], m[2])
				if !ok {
					return model.UnknownYear, false
				}
				era := eraOf(m[3], text)
				return model.YearOf(mean(centuryYear(a, midCentury, era), centuryYear(b, midCentury, era))), true
			},
		},
		{
			Name:    "century-range-era",
			Pattern: regexp.MustCompile(`(?i)\b([IVXLC]+)-([IVXLC]+)\s+(BC|AD)\b`),
			Extract: func(_ string, m []string) (model.Year, bool) {
				a, b, ok := romanPair(m[1], m[2])
				if !ok {
					return model.UnknownYear, false
				}
				era := eraOf(m[3], "")
				return model.YearOf(mean(centuryYear(a, midCentury, era), centuryYear(b, midCentury, era))), true
			},
		},
		{
			Name:    "century-turn",
			Pattern: regexp.MustCompile(`(?i)\bturn\s+(?:of\s+)?(?:the\s+)?` + centuryToken + `\s*-\s*` + centuryToken + centuryWord + eraSuffix),
			Extract: func(text string, m []string) (model.Year, bool) {
				a, okA := centuryNumber(m[1])
				b, okB := centuryNumber(m[2])
				if !okA || !okB {
					return model.UnknownYear, false
				}
				return model.YearOf(eraOf(m[3], text).Sign(100 * min(a, b))), true
			},
		},
		{
			Name: "century-transition",
			Pattern: regexp.MustCompile(`(?i)(?:\b` + partToken + `)?` + partGlue + centuryToken + `\s*-\s*` +
				`(?:` + partToken + `)?` + partGlue + centuryToken + centuryWord + eraSuffix),
			Extract: func(text string, m []string) (model.Year, bool) {
				a, okA := centuryNumber(m[2])
				b, okB := centuryNumber(m[4])
				if !okA || !okB {
					return model.UnknownYear, false
				}
				era := eraOf(m[5], text)
				from := centuryYear(a, boundaryOffset(m[1]), era)
				to := centuryYear(b, boundaryOffset(m[3]), era)
				return model.YearOf(mean(from, to)), true
			},
		},
		{
			Name:    "century-fraction",
			Pattern: regexp.MustCompile(`(?i)\b` + partToken + partGlue + centuryToken + centuryWord + eraSuffix),
			Extract: func(text string, m []string) (model.Year, bool) {
				n, ok := centuryNumber(m[2])
				if !ok {
					return model.UnknownYear, false
				}
				return model.YearOf(centuryYear(n, partOffset(m[1]), eraOf(m[3], text))), true
			},
		},
		{
			Name:    "century",
			Pattern: regexp.MustCompile(`(?i)\b` + centuryToken + centuryWord + eraSuffix),
			Extract: func(text string, m []string) (model.Year, bool) {
				n, ok := centuryNumber(m[1])
				if !ok {
					return model.UnknownYear, false
				}
				return model.YearOf(centuryYear(n, midCentury, eraOf(m[2], text))), true
			},
		},
		{
			Name:    "year-4digit",
			Pattern: regexp.MustCompile(`(?:^|[^\d-])(\d{4})(?:$|[^\d-])`),
			Extract: func(_ string, m []string) (model.Year, bool) {
				return signedYear(m[1], model.EraAD)
			},
		},
		{
			Name:    "year-range-4digit",
			Pattern: regexp.MustCompile(`\b(\d{4})-(\d{4})\b`),
			Extract: func(_ string, m []string) (model.Year, bool) {
				return yearRange(m[1], m[2], model.EraAD)
			},
		},
	}
}

// Offsets into a century, in years past its first year
const (
	midCentury = 50
	centuryEnd = 100
)

var quarterOffsets = [4]int{12, 37, 62, 87}

var quarterIndex = map[string]int{
	"first": 0, "1st": 0,
	"second": 1, "2nd": 1,
	"third": 2, "3rd": 2,
	"fourth": 3, "4th": 3, "last": 3,
}

// partOffset places a part of a single century
func partOffset(part string) int {
	p := strings.ToLower(strings.Join(strings.Fields(part), " "))
	switch {
	case strings.HasSuffix(p, "quarter"):
		word := strings.TrimSpace(strings.TrimSuffix(p, "quarter"))
		if i, ok := quarterIndex[word]; ok {
			return quarterOffsets[i]
		}
	case strings.HasSuffix(p, "half"):
		if strings.HasPrefix(p, "first") || strings.HasPrefix(p, "1st") {
			return 25
		}
		return 75
	case p == "beginning":
		return 10
	case p == "end":
		return 90
	}
	return midCentury
}

// boundaryOffset places an endpoint of a transition between centuries.
// "end" and "beginning" sit on the century boundary; a bare endpoint is
// the middle of its century.
func boundaryOffset(part string) int {
	switch strings.ToLower(strings.TrimSpace(part)) {
	case "":
		return midCentury
	case "beginning":
		return 0
	case "end":
		return centuryEnd
	}
	return partOffset(part)
}

// centuryYear is the year offset years into century n of the era.
// BC centuries mirror AD ones: the 4th century BC spans -400..-301.
func centuryYear(n, offset int, era model.Era) int {
	return era.Sign(100*(n-1) + offset)
}

func millenniumYear(n int, era model.Era) int {
	return era.Sign(1000*n - 500)
}

// centuryNumber accepts "XIV", "xiv" or "14th"
func centuryNumber(token string) (int, bool) {
	if n, ok := roman.Parse(token); ok {
		return n, true
	}
	t := strings.ToLower(token)
	for _, suffix := range []string{"st", "nd", "rd", "th"} {
		if strings.HasSuffix(t, suffix) {
			n, err := strconv.Atoi(strings.TrimSuffix(t, suffix))
			if err != nil || n < 1 || n > roman.Max {
				return 0, false
			}
			return n, true
		}
	}
	return 0, false
}

func romanPair(a, b string) (int, int, bool) {
	x, okX := roman.Parse(a)
	y, okY := roman.Parse(b)
	return x, y, okX && okY
}

// eraOf reads an explicit marker, falling back to a BC marker anywhere in text
func eraOf(marker, text string) model.Era {
	if marker != "" {
		if strings.EqualFold(marker, "BC") {
			return model.EraBC
		}
		return model.EraAD
	}
	if reBCMarker.MatchString(text) {
		return model.EraBC
	}
	return model.EraAD
}

func signedYear(digits string, era model.Era) (model.Year, bool) {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return model.UnknownYear, false
	}
	return model.YearOf(era.Sign(n)), true
}

func yearRange(from, to string, era model.Era) (model.Year, bool) {
	a, err := strconv.Atoi(from)
	if err != nil {
		return model.UnknownYear, false
	}
	b, err := strconv.Atoi(to)
	if err != nil {
		return model.UnknownYear, false
	}
	return model.YearOf(era.Sign(mean(a, b))), true
}

// mean truncates toward zero, so mirrored inputs give mirrored results
func mean(a, b int) int {
	return (a + b) / 2
}
