package model

import "time"

// NormalizedEntry is a raw entry after date, value and wind normalization.
// It is derived on demand and never persisted on its own.
type NormalizedEntry struct {
	// Instant is zero when the date could not be parsed.
	Instant time.Time
	// Value is meaningful only when Numeric is true.
	Value    float64
	Numeric  bool
	RawValue string
	// Wind is nil when no reading was recorded.
	Wind      *float64
	Legal     bool
	Metric    MetricKind
	Key       string
	Label     string
	Year      int
	Venue     string
	Round     string
	Placement string
	Level     string
	Points    string
}

// Dated reports whether the entry has a usable instant.
func (e NormalizedEntry) Dated() bool { return !e.Instant.IsZero() }

// RecordEntry is the entry selected as the best mark for one event key.
type RecordEntry struct {
	Key    string
	Metric MetricKind
	Entry  NormalizedEntry
}
