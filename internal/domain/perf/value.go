// Package perf classifies events and converts performance marks between
// archive text and canonical numbers.
package perf

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/okian/palmares/internal/domain/model"
)

// nonFinish are marks that record an outcome but no measurement.
var nonFinish = map[string]struct{}{
	"DNF": {}, "DNS": {}, "DQ": {}, "DSQ": {}, "NM": {}, "NH": {},
	"AB": {}, "ABD": {}, "ABANDON": {}, "NC": {}, "NP": {}, "DISQ": {},
}

var (
	primes = strings.NewReplacer(
		"’", "'", "′", "'", "‘", "'", "´", "'", "`", "'",
		"″", "''", `"`, "''",
	)
	parenthesized = regexp.MustCompile(`\(([^()]*)\)`)

	hoursForm   = regexp.MustCompile(`^(\d+)h(\d{1,2})'(\d{1,2})(?:(?:''|[.,])(\d{1,3}))?(?:'')?$`)
	minutesForm = regexp.MustCompile(`^(\d+)'(\d{1,2})(?:(?:''|[.,])(\d{1,3}))?(?:'')?$`)
	secondsForm = regexp.MustCompile(`^(\d+)''(\d{1,3})?$`)
	dottedSecs  = regexp.MustCompile(`^(\d+)[.,](\d+)''$`)
	colonForm   = regexp.MustCompile(`^(?:(\d+):)?(\d{1,2}):(\d{1,2})(?:[.,](\d{1,3}))?$`)
	plainForm   = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)

	metricForm = regexp.MustCompile(`^(\d+)m(\d{1,2})$`)
	pointsForm = regexp.MustCompile(`\d{1,3}(?:[ \x{00A0}.]\d{3})+|\d+`)
)

// NonFinish reports whether raw is a did-not-finish style label, or carries
// no digits at all.
func NonFinish(raw string) bool {
	s := strings.TrimSpace(raw)
	if !strings.ContainsFunc(s, unicode.IsDigit) {
		return true
	}
	fields := strings.FieldsFunc(strings.ToUpper(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(fields) == 0 {
		return false
	}
	_, ok := nonFinish[fields[0]]
	return ok
}

// ParseTime converts a time mark into seconds. A parenthesized reading takes
// priority over the headline figure.
func ParseTime(raw string) (float64, bool) {
	if NonFinish(raw) {
		return 0, false
	}
	if m := parenthesized.FindStringSubmatch(raw); m != nil {
		if v, ok := parseTimeText(m[1]); ok {
			return v, true
		}
		return parseTimeText(parenthesized.ReplaceAllString(raw, ""))
	}
	return parseTimeText(raw)
}

func parseTimeText(raw string) (float64, bool) {
	s := strings.Join(strings.Fields(primes.Replace(raw)), "")
	if s == "" {
		return 0, false
	}
	if m := hoursForm.FindStringSubmatch(s); m != nil {
		return atoi(m[1])*3600 + atoi(m[2])*60 + atoi(m[3]) + fraction(m[4]), true
	}
	if m := minutesForm.FindStringSubmatch(s); m != nil {
		return atoi(m[1])*60 + atoi(m[2]) + fraction(m[3]), true
	}
	if m := secondsForm.FindStringSubmatch(s); m != nil {
		return atoi(m[1]) + fraction(m[2]), true
	}
	if m := dottedSecs.FindStringSubmatch(s); m != nil {
		return atoi(m[1]) + fraction(m[2]), true
	}
	if m := colonForm.FindStringSubmatch(s); m != nil {
		return atoi(m[1])*3600 + atoi(m[2])*60 + atoi(m[3]) + fraction(m[4]), true
	}
	if plainForm.MatchString(s) {
		return decimal(s)
	}
	return 0, false
}

// ParseDistance converts a distance mark in meters. "7,25", "7.25" and
// "7m25" are accepted.
func ParseDistance(raw string) (float64, bool) {
	if NonFinish(raw) {
		return 0, false
	}
	s := strings.Join(strings.Fields(raw), "")
	if m := metricForm.FindStringSubmatch(s); m != nil {
		return atoi(m[1]) + fraction(m[2]), true
	}
	if plainForm.MatchString(s) {
		return decimal(s)
	}
	return 0, false
}

// ParsePoints extracts an integer score, tolerating thousands separators.
func ParsePoints(raw string) (float64, bool) {
	if NonFinish(raw) {
		return 0, false
	}
	m := pointsForm.FindString(raw)
	if m == "" {
		return 0, false
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, m)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return float64(n), true
}

// Normalize converts raw text to the canonical value for kind. The second
// result is false when the mark carries no numeric value; callers must not
// treat that as zero.
func Normalize(kind model.MetricKind, raw string) (float64, bool) {
	switch kind {
	case model.MetricTime:
		return ParseTime(raw)
	case model.MetricDistance:
		return ParseDistance(raw)
	case model.MetricPoints:
		return ParsePoints(raw)
	default:
		return 0, false
	}
}

func atoi(s string) float64 {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return float64(n)
}

// fraction reads digits as the part after a decimal point: "5" -> 0.5,
// "05" -> 0.05.
func fraction(digits string) float64 {
	if digits == "" {
		return 0
	}
	f, _ := strconv.ParseFloat("0."+digits, 64)
	return f
}

func decimal(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
