// Package dates normalizes archive date strings into instants.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NeutralHour is the time of day given to date-only instants so that later
// rendering in another zone does not shift the calendar day.
const NeutralHour = 12

// months covers full French month names and their usual abbreviations,
// keyed by their accent-folded lowercase form.
var months = map[string]time.Month{
	"janvier": time.January, "janv": time.January, "jan": time.January,
	"fevrier": time.February, "fevr": time.February, "fev": time.February,
	"mars": time.March, "mar": time.March,
	"avril": time.April, "avr": time.April,
	"mai": time.May,
	"juin": time.June,
	"juillet": time.July, "juil": time.July, "jul": time.July,
	"aout": time.August, "aou": time.August,
	"septembre": time.September, "sept": time.September, "sep": time.September,
	"octobre": time.October, "oct": time.October,
	"novembre": time.November, "nov": time.November,
	"decembre": time.December, "dec": time.December,
}

var (
	// "12 mars", "1er mai 2024", "sam. 12 mars"
	dayMonthName = regexp.MustCompile(`^(?:\p{L}+\.?\s+)?(\d{1,2})(?:er)?\s+(\p{L}+)\.?(?:\s+(\d{4}|\d{2}))?$`)
	// "05/06/23", "05/06/2023", "12/03"
	dayMonthNumeric = regexp.MustCompile(`^(?:\p{L}+\.?\s+)?(\d{1,2})[/.-](\d{1,2})(?:[/.-](\d{4}|\d{2}))?$`)
)

// generic layouts tried last; dateOnly marks layouts without a time of day.
var generic = []struct {
	layout   string
	dateOnly bool
}{
	{time.RFC3339, false},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02", true},
	{"2006/01/02", true},
	{"2 January 2006", true},
	{"January 2, 2006", true},
	{"Jan 2, 2006", true},
}

// Parse converts raw date text into an instant. yearHint supplies the year
// when the text omits it; pass 0 when unknown. Date-only inputs land at
// NeutralHour UTC. The second result is false when nothing matches or the
// day, month and year do not form a real calendar date.
func Parse(raw string, yearHint int) (time.Time, bool) {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return time.Time{}, false
	}

	if m := dayMonthName.FindStringSubmatch(s); m != nil {
		if month, ok := months[fold(m[2])]; ok {
			day, _ := strconv.Atoi(m[1])
			if year, ok := resolveYear(m[3], yearHint); ok {
				return civil(year, month, day)
			}
		}
	}

	if m := dayMonthNumeric.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if year, ok := resolveYear(m[3], yearHint); ok {
			return civil(year, time.Month(month), day)
		}
	}

	for _, g := range generic {
		t, err := time.Parse(g.layout, s)
		if err != nil {
			continue
		}
		if g.dateOnly {
			return civil(t.Year(), t.Month(), t.Day())
		}
		return t.UTC(), true
	}
	return time.Time{}, false
}

// MustParse is Parse for fixtures; it panics on unparseable input.
func MustParse(raw string, yearHint int) time.Time {
	t, ok := Parse(raw, yearHint)
	if !ok {
		panic("dates: unparseable " + strconv.Quote(raw))
	}
	return t
}

// resolveYear picks the explicit year when present; two-digit years are 20xx.
func resolveYear(explicit string, hint int) (int, bool) {
	if explicit == "" {
		return hint, hint > 0
	}
	y, err := strconv.Atoi(explicit)
	if err != nil {
		return 0, false
	}
	if len(explicit) == 2 {
		y += 2000
	}
	return y, true
}

func civil(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, NeutralHour, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// fold lowercases and strips diacritics: "Février" -> "fevrier".
func fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(strings.ToLower(s)) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSuffix(b.String(), ".")
}
