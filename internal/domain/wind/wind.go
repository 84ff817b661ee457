// Package wind reads wind readings and decides record legality.
package wind

import (
	"regexp"
	"strconv"
	"strings"
)

// LegalLimit is the maximum tailwind, in m/s, for a record-eligible mark.
const LegalLimit = 2.0

// Reading is an evaluated wind cell.
type Reading struct {
	Value     float64
	Specified bool
	Legal     bool
}

// Ptr returns the value for optional fields, nil when unspecified.
func (r Reading) Ptr() *float64 {
	if !r.Specified {
		return nil
	}
	v := r.Value
	return &v
}

var (
	units = strings.NewReplacer(
		"m.s-1", "",
		"ms-1", "",
		"m/sec", "",
		"m/s", "",
		"−", "-",
		",", ".",
	)
	number = regexp.MustCompile(`[+-]?\d+(?:\.\d+)?`)
)

// Evaluate parses a wind cell such as "+1.8", "-0,4 m/s" or "". Missing or
// unparseable readings are unspecified and legal.
func Evaluate(raw string) Reading {
	s := units.Replace(strings.ToLower(strings.TrimSpace(raw)))
	m := number.FindString(s)
	if m == "" {
		return Reading{Legal: true}
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return Reading{Legal: true}
	}
	return Reading{Value: v, Specified: true, Legal: v <= LegalLimit}
}
