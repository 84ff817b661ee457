package model

import "time"

// Performance is the per-event summary exported with a profile.
type Performance struct {
	Epreuve    string `json:"epreuve"`
	Record     string `json:"record"`
	BestSeason string `json:"bestSeason"`
}

// Profile is the persisted, exported shape of one athlete's ingested results.
type Profile struct {
	AthleteID           string                `json:"athleteId"`
	Records             map[string]string     `json:"records"`
	RecordPoints        map[string]float64    `json:"recordPoints"`
	Performances        []Performance         `json:"performances"`
	PerformanceTimeline []TimelinePoint       `json:"performanceTimeline"`
	ResultsByYear       ResultsByYear         `json:"ffaResultsByYear"`
	MergedByEvent       MergedEventBucket     `json:"ffaMergedByEvent"`
	Metrics             map[string]MetricKind `json:"metrics"`
	Labels              map[string]string     `json:"labels"`
	UpdatedAt           time.Time             `json:"updatedAt"`
}

// NewProfile returns an empty, well-formed profile.
func NewProfile(athleteID string) *Profile {
	return &Profile{
		AthleteID:     athleteID,
		Records:       make(map[string]string),
		RecordPoints:  make(map[string]float64),
		Performances:  []Performance{},
		ResultsByYear: make(ResultsByYear),
		MergedByEvent: make(MergedEventBucket),
		Metrics:       make(map[string]MetricKind),
		Labels:        make(map[string]string),
	}
}

// ResultSet rebuilds the raw accumulation structure from the persisted
// year buckets so that new years can be appended.
func (p *Profile) ResultSet() *ResultSet {
	set := NewResultSet()
	for year, bucket := range p.ResultsByYear {
		cp := make(EventBucket, len(bucket))
		for key, entries := range bucket {
			cp[key] = append([]RawResultEntry(nil), entries...)
		}
		set.ByYear[year] = cp
	}
	for k, v := range p.Labels {
		set.Labels[k] = v
	}
	return set
}
