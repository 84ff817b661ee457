// Package timeline builds an athlete's chronological performance series.
package timeline

import (
	"sort"
	"strings"

	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/internal/domain/perf"
)

// Tier names the source a timeline was built from.
type Tier string

// Sources in the order they are tried.
const (
	TierPersisted Tier = "persisted"
	TierYears     Tier = "years"
	TierMerged    Tier = "merged"
	TierNone      Tier = "none"
)

// Sources holds every representation a timeline can be rebuilt from. Any
// field may be empty.
type Sources struct {
	Persisted []model.TimelinePoint
	Results   *model.ResultSet
	Merged    model.MergedEventBucket
	// Metrics fixes the kind per key; missing keys are classified on demand.
	Metrics map[string]model.MetricKind
}

// Build returns points ascending by date, optionally restricted to one
// discipline. Each source is consulted only when the previous one yields no
// point after filtering.
func Build(src Sources, discipline string) ([]model.TimelinePoint, Tier) {
	if pts := Filter(src.Persisted, discipline); len(pts) > 0 {
		return sorted(pts), TierPersisted
	}
	if src.Results != nil {
		if pts := FromYears(src.Results, src.Metrics, discipline); len(pts) > 0 {
			return pts, TierYears
		}
	}
	if pts := FromMerged(src.Merged, src.Metrics, discipline); len(pts) > 0 {
		return pts, TierMerged
	}
	return []model.TimelinePoint{}, TierNone
}

// FromYears reconstructs points from per-year buckets.
func FromYears(set *model.ResultSet, metrics map[string]model.MetricKind, discipline string) []model.TimelinePoint {
	var pts []model.TimelinePoint
	for _, year := range set.ByYear.Years() {
		bucket := set.ByYear[year]
		for _, key := range model.SortedKeys(bucket) {
			label := set.Label(key)
			if !Matches(label, discipline) {
				continue
			}
			kind := kindFor(metrics, key, label, bucket[key])
			for _, raw := range bucket[key] {
				l := raw.Label
				if l == "" {
					l = label
				}
				if p, ok := point(perf.Entry(key, l, year, kind, raw)); ok {
					pts = append(pts, p)
				}
			}
		}
	}
	return sorted(pts)
}

// FromMerged reconstructs points from the cross-year view. It is also the
// merged-by-event query, which never falls back.
func FromMerged(merged model.MergedEventBucket, metrics map[string]model.MetricKind, discipline string) []model.TimelinePoint {
	var pts []model.TimelinePoint
	for _, key := range model.SortedKeys(merged) {
		entries := merged[key]
		label := key
		if len(entries) > 0 && entries[0].Label != "" {
			label = entries[0].Label
		}
		if !Matches(label, discipline) {
			continue
		}
		kind := kindFor(metrics, key, label, entries)
		for _, e := range perf.Merged(key, kind, entries) {
			if p, ok := point(e); ok {
				pts = append(pts, p)
			}
		}
	}
	return sorted(pts)
}

// Points projects normalized entries, dropping undated ones, sorted.
func Points(entries []model.NormalizedEntry) []model.TimelinePoint {
	pts := make([]model.TimelinePoint, 0, len(entries))
	for _, e := range entries {
		if p, ok := point(e); ok {
			pts = append(pts, p)
		}
	}
	return sorted(pts)
}

// Filter keeps points of one discipline. An empty discipline keeps all.
func Filter(points []model.TimelinePoint, discipline string) []model.TimelinePoint {
	if strings.TrimSpace(discipline) == "" {
		return append([]model.TimelinePoint(nil), points...)
	}
	var out []model.TimelinePoint
	for _, p := range points {
		if Matches(p.Discipline, discipline) {
			out = append(out, p)
		}
	}
	return out
}

// Matches compares a label to a requested discipline, ignoring case and
// surrounding space. The sanitized key form also matches.
func Matches(label, discipline string) bool {
	want := strings.ToLower(strings.TrimSpace(discipline))
	if want == "" {
		return true
	}
	got := strings.ToLower(strings.TrimSpace(label))
	return got == want || strings.ToLower(model.EventKey(label)) == strings.ToLower(model.EventKey(discipline))
}

func point(e model.NormalizedEntry) (model.TimelinePoint, bool) {
	if !e.Dated() {
		return model.TimelinePoint{}, false
	}
	p := model.TimelinePoint{
		Discipline: e.Label,
		Date:       e.Instant,
		Wind:       e.Wind,
		Meeting:    e.Venue,
		Notes:      notes(e),
	}
	if e.Numeric {
		p.Value = model.NumberValue(e.Value)
	} else {
		p.Value = model.TextValue(e.RawValue)
	}
	if v, ok := perf.ParsePoints(e.Points); ok {
		p.Points = &v
	}
	return p, true
}

func notes(e model.NormalizedEntry) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{e.Round, e.Placement, e.Level} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " · ")
}

func kindFor[E interface{ Mark() string }](metrics map[string]model.MetricKind, key, label string, entries []E) model.MetricKind {
	if k, ok := metrics[key]; ok && k.Valid() {
		return k
	}
	return perf.Classify(label, perf.Sample(entries))
}

func sorted(pts []model.TimelinePoint) []model.TimelinePoint {
	if pts == nil {
		return []model.TimelinePoint{}
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })
	return pts
}
