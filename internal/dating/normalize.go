package dating

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/periodize/internal/roman"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// RomanPeriod is the canonical token for "Roman time" style descriptions
const RomanPeriod = "Roman Period"

// maxPasses bounds the cleanup loop in Normalize
const maxPasses = 16

// dashReplacer folds dash variants (and the UTF-8 en dash read as Mac Roman)
// into an ASCII hyphen. Applied before NFKC so the mojibake is still intact.
var dashReplacer = strings.NewReplacer(
	"\u201a\u00c4\u00ec", "-",
	"\u2010", "-",
	"\u2011", "-",
	"\u2012", "-",
	"\u2013", "-",
	"\u2014", "-",
	"\u2015", "-",
	"\u2212", "-",
	"\u00a0", " ",
)

var (
	reRomanTime = regexp.MustCompile(`(?i)roman\s+time`)

	// Step 3: qualifiers
	reLeadingApprox    = regexp.MustCompile(`(?i)^(?:(?:ca\.|c\.|circa\b|around\b|approx\.|approximately\b)\s*)+`)
	reNumeralQualifier = regexp.MustCompile(`(^|[-\s])(?i:early|beginning)\s*([IVXLC]+\b|\d)`)

	// Step 4: upstream encoding garbage
	reKnownArtifact = regexp.MustCompile(`(?i)(?:sec\.floor|lanefloor)\.(?:\s*-?\s*sir\.)?`)
	reWedgedGarbage = regexp.MustCompile(`\b([IVXLC]+)\s*-\s*[A-Za-z.]*[a-z]{4,}[A-Za-z.]*?\s*-?\s*([IVXLC]+)\b`)

	// Step 5: ordinal centuries
	reOrdinalCentury = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)\s+(centur(?:y|ies))`)

	// Step 6: era markers
	reEraBC = regexp.MustCompile(`(^|[^A-Za-z]|[IVXLC]|s|(?i:centur(?:y|ies)|millennium|thousand))(?i:b\.?\s?c\.?(?:\s?e\.?)?)($|[^A-Za-z])`)
	reEraAD = regexp.MustCompile(`(^|[^A-Za-z]|[IVXLC]|(?i:centur(?:y|ies)|millennium))(?i:a\.?d\.?|c\.?e\.?)($|[^A-Za-z])`)

	// Step 7: spacing around era markers
	reGluedEra  = regexp.MustCompile(`([IVXLC\d]|s|centur(?:y|ies)|millennium|thousand)(BC|AD)\b`)
	reDottedEra = regexp.MustCompile(`([A-Za-z\d])\.\s*(BC|AD)\b`)
	reEraDigit  = regexp.MustCompile(`\b(BC|AD)(\d)`)

	// Step 8: separators
	reDash   = regexp.MustCompile(`\s*-\s*`)
	reSpaces = regexp.MustCompile(`\s+`)
)

// Normalize cleans a raw dating string into the canonical form the extractor
// expects. It never fails; empty input yields an empty string. Output keeps
// its original letter case. The cleanup steps run until the text stops
// changing, so Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	s := raw
	for i := 0; i < maxPasses; i++ {
		next := normalizePass(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func normalizePass(s string) string {
	s = preclean(s)
	if s == "" {
		return ""
	}

	if reRomanTime.MatchString(s) {
		return RomanPeriod
	}

	s = stripQualifiers(s)
	s = removeGarbage(s)
	s = romanizeOrdinalCenturies(s)
	s = normalizeEraMarkers(s)
	s = spaceEraMarkers(s)
	return tidySeparators(s)
}

// preclean decodes entities, folds compatibility characters and dashes
func preclean(raw string) string {
	s := html.UnescapeString(raw)
	s = dashReplacer.Replace(s)
	s = norm.NFKC.String(s)
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}

func stripQualifiers(s string) string {
	s = reLeadingApprox.ReplaceAllString(s, "")
	return reNumeralQualifier.ReplaceAllString(s, "${1}${2}")
}

func removeGarbage(s string) string {
	s = reKnownArtifact.ReplaceAllString(s, "")
	s = reWedgedGarbage.ReplaceAllString(s, "${1}-${2}")
	return strings.TrimSpace(s)
}

func romanizeOrdinalCenturies(s string) string {
	return reOrdinalCentury.ReplaceAllStringFunc(s, func(match string) string {
		m := reOrdinalCentury.FindStringSubmatch(match)
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > 20 {
			return match
		}
		numeral, err := roman.FromInteger(n)
		if err != nil {
			return match
		}
		return numeral + " " + strings.ToLower(m[2])
	})
}

func normalizeEraMarkers(s string) string {
	s = reEraBC.ReplaceAllString(s, "${1}BC${2}")
	s = reEraAD.ReplaceAllString(s, "${1}AD${2}")
	return s
}

func spaceEraMarkers(s string) string {
	s = reGluedEra.ReplaceAllString(s, "$1 $2")
	s = reDottedEra.ReplaceAllString(s, "$1 $2")
	s = reEraDigit.ReplaceAllString(s, "$1 $2")
	return s
}

func tidySeparators(s string) string {
	s = reDash.ReplaceAllString(s, "-")
	s = reSpaces.ReplaceAllString(s, " ")
	for {
		trimmed := strings.Trim(strings.TrimRight(s, ". "), `" `)
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}
