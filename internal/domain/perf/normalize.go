package perf

import (
	"github.com/okian/palmares/internal/domain/dates"
	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/internal/domain/wind"
)

// Entry runs date, value and wind normalization over one raw entry. year is
// both the entry's season and the hint for dates written without a year.
func Entry(key, label string, year int, kind model.MetricKind, raw model.RawResultEntry) model.NormalizedEntry {
	instant, _ := dates.Parse(raw.Date, year)
	value, numeric := Normalize(kind, raw.Performance)
	w := wind.Evaluate(raw.Wind)
	return model.NormalizedEntry{
		Instant:   instant,
		Value:     value,
		Numeric:   numeric,
		RawValue:  raw.Performance,
		Wind:      w.Ptr(),
		Legal:     w.Legal,
		Metric:    kind,
		Key:       key,
		Label:     label,
		Year:      year,
		Venue:     raw.Venue,
		Round:     raw.Round,
		Placement: raw.Placement,
		Level:     raw.Level,
		Points:    raw.Points,
	}
}

// Merged normalizes every entry of a merged bucket for one key.
func Merged(key string, kind model.MetricKind, entries []model.MergedEntry) []model.NormalizedEntry {
	out := make([]model.NormalizedEntry, 0, len(entries))
	for _, e := range entries {
		label := e.Label
		if label == "" {
			label = key
		}
		out = append(out, Entry(key, label, e.Year, kind, e.RawResultEntry))
	}
	return out
}
