package model

// MetricKind tells how an event's performances are measured.
type MetricKind string

// Metric kinds. Exactly one applies per event key.
const (
	MetricTime     MetricKind = "time"
	MetricDistance MetricKind = "distance"
	MetricPoints   MetricKind = "points"
)

// Valid reports whether k is a known kind.
func (k MetricKind) Valid() bool {
	switch k {
	case MetricTime, MetricDistance, MetricPoints:
		return true
	}
	return false
}

// LowerIsBetter is true for timed events.
func (k MetricKind) LowerIsBetter() bool { return k == MetricTime }
