package perf

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/okian/palmares/internal/domain/model"
)

// ShortEffortLimit is the parsed value, in seconds, under which an
// ambiguous plain number is read as a time.
const ShortEffortLimit = 1200

var (
	combinedEvent = regexp.MustCompile(`(?i)(d[ée]c|hept|pent|tri|t[ée]tr|hex|oct)athlon`)
	pointsMarker  = regexp.MustCompile(`(?i)\b(pts|points?)\b`)
	enduranceRun  = regexp.MustCompile(`(?i)marathon|\d\s*km|route|cross|marche|heure|ekiden|trail|semi`)
)

// rule maps one predicate to the kind it implies. Rules are evaluated in
// order; the first match wins.
type rule struct {
	kind  model.MetricKind
	match func(label, sample string) bool
}

var rules = []rule{
	{model.MetricPoints, func(label, _ string) bool { return combinedEvent.MatchString(label) }},
	{model.MetricPoints, func(_, sample string) bool { return pointsMarker.MatchString(sample) }},
	{model.MetricTime, timed},
}

// Classify decides the metric kind of an event from its label and one
// representative performance string. Distance is the fallback.
func Classify(label, sample string) model.MetricKind {
	for _, r := range rules {
		if r.match(label, sample) {
			return r.kind
		}
	}
	return model.MetricDistance
}

// timed accepts time-looking marks of any length and plain short numbers.
// A field mark written as a bare small decimal therefore reads as a time;
// telling them apart needs an event-name table.
func timed(label, sample string) bool {
	v, ok := ParseTime(sample)
	if !ok {
		return false
	}
	return timeLike(label, sample) || v < ShortEffortLimit
}

func timeLike(label, sample string) bool {
	if strings.ContainsRune(sample, ':') {
		return true
	}
	if strings.ContainsAny(sample, `'’′‘´″"`+"`") {
		return true
	}
	return enduranceRun.MatchString(label)
}

// Sample returns the first performance carrying a digit, or the first
// performance when none does.
func Sample[E interface{ Mark() string }](entries []E) string {
	for _, e := range entries {
		if strings.ContainsFunc(e.Mark(), unicode.IsDigit) {
			return e.Mark()
		}
	}
	if len(entries) > 0 {
		return entries[0].Mark()
	}
	return ""
}

// ClassifySet assigns a kind to every key of set. Kinds already present in
// known are kept, so a key's kind never changes once assigned.
func ClassifySet(set *model.ResultSet, known map[string]model.MetricKind) map[string]model.MetricKind {
	out := make(map[string]model.MetricKind)
	merged := set.Merged()
	for _, key := range model.SortedKeys(merged) {
		if k, ok := known[key]; ok && k.Valid() {
			out[key] = k
			continue
		}
		out[key] = Classify(set.Label(key), Sample(merged[key]))
	}
	return out
}
