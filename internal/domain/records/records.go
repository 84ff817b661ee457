// Package records selects personal bests and season bests.
package records

import (
	"github.com/okian/palmares/internal/domain/model"
)

// Better reports whether candidate beats current under kind: smaller wins
// for times, larger for distances and points.
func Better(kind model.MetricKind, candidate, current float64) bool {
	if kind.LowerIsBetter() {
		return candidate < current
	}
	return candidate > current
}

// Best folds entries into the single best mark. A legal mark always beats an
// illegal one; between equal legality the metric decides. Marks without a
// numeric value never win. On an exact tie the earlier entry is kept, so
// callers should pass entries in a stable order.
func Best(kind model.MetricKind, entries []model.NormalizedEntry) (model.NormalizedEntry, bool) {
	var (
		best  model.NormalizedEntry
		found bool
	)
	for _, e := range entries {
		if !e.Numeric {
			continue
		}
		switch {
		case !found:
			best, found = e, true
		case e.Legal && !best.Legal:
			best = e
		case e.Legal == best.Legal && Better(kind, e.Value, best.Value):
			best = e
		}
	}
	return best, found
}

// Selection is the outcome for one event key.
type Selection struct {
	Record     *model.RecordEntry
	SeasonBest *model.RecordEntry
}

// Select picks the all-time record and the season best for currentYear.
// Without a numeric mark in currentYear the season best is the record.
func Select(key string, kind model.MetricKind, entries []model.NormalizedEntry, currentYear int) Selection {
	var sel Selection
	best, ok := Best(kind, entries)
	if !ok {
		return sel
	}
	sel.Record = &model.RecordEntry{Key: key, Metric: kind, Entry: best}

	season := make([]model.NormalizedEntry, 0, len(entries))
	for _, e := range entries {
		if e.Year == currentYear {
			season = append(season, e)
		}
	}
	if sb, ok := Best(kind, season); ok {
		sel.SeasonBest = &model.RecordEntry{Key: key, Metric: kind, Entry: sb}
	} else {
		sel.SeasonBest = sel.Record
	}
	return sel
}
