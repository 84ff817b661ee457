package ingest

import (
	"time"

	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/internal/domain/perf"
	"github.com/okian/palmares/internal/domain/records"
	"github.com/okian/palmares/internal/domain/timeline"
	"github.com/okian/palmares/pkg/metrics"
)

// BuildProfile derives the exported profile from the raw result set. Kinds
// already present in known are kept. The result depends only on its inputs,
// so it can be rebuilt any number of times.
func BuildProfile(athleteID string, set *model.ResultSet, known map[string]model.MetricKind, currentYear int, now time.Time) *model.Profile {
	p := model.NewProfile(athleteID)
	p.UpdatedAt = now.UTC()
	if set == nil {
		return p
	}

	p.Metrics = perf.ClassifySet(set, known)
	merged := set.Merged()
	p.ResultsByYear = set.ByYear
	p.MergedByEvent = merged
	for k, v := range set.Labels {
		p.Labels[k] = v
	}

	var all []model.NormalizedEntry
	var undated, nonNumeric, illegal int
	for _, key := range model.SortedKeys(merged) {
		kind := p.Metrics[key]
		entries := perf.Merged(key, kind, merged[key])
		all = append(all, entries...)
		for _, e := range entries {
			if !e.Dated() {
				undated++
			}
			if !e.Numeric {
				nonNumeric++
			}
			if !e.Legal {
				illegal++
			}
		}

		sel := records.Select(key, kind, entries, currentYear)
		metrics.RecordRecordComputation()
		if sel.Record == nil {
			continue
		}
		best := sel.Record.Entry
		p.Records[key] = best.RawValue
		if pts, ok := recordPoints(kind, best); ok {
			p.RecordPoints[key] = pts
		}
		p.Performances = append(p.Performances, model.Performance{
			Epreuve:    set.Label(key),
			Record:     best.RawValue,
			BestSeason: sel.SeasonBest.Entry.RawValue,
		})
	}
	metrics.RecordEntryQuality(undated, nonNumeric, illegal)

	p.PerformanceTimeline = timeline.Points(all)
	return p
}

// recordPoints prefers the archive's points column; for combined events the
// mark itself is the score.
func recordPoints(kind model.MetricKind, e model.NormalizedEntry) (float64, bool) {
	if v, ok := perf.ParsePoints(e.Points); ok {
		return v, true
	}
	if kind == model.MetricPoints && e.Numeric {
		return e.Value, true
	}
	return 0, false
}
