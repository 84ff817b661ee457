// Package types contains the response shapes shared by the service and the
// HTTP API.
package types

import (
	"time"

	"github.com/okian/palmares/internal/domain/model"
)

// Submission is one pushed athlete-season.
type Submission struct {
	Year  int      `json:"year"`
	Pages []string `json:"pages"`
}

// SubmitResult acknowledges a submission.
type SubmitResult struct {
	SubmissionID string `json:"submission_id"`
	Duplicate    bool   `json:"duplicate"`
}

// Mark is one dated performance in a record view.
type Mark struct {
	Value     *float64   `json:"value,omitempty"`
	Raw       string     `json:"raw"`
	Formatted string     `json:"formatted,omitempty"`
	Wind      *float64   `json:"wind,omitempty"`
	Legal     bool       `json:"legal"`
	Date      *time.Time `json:"date,omitempty"`
	Year      int        `json:"year"`
	Venue     string     `json:"venue,omitempty"`
}

// RecordView is the personal best and season best for one event.
type RecordView struct {
	Key        string           `json:"key"`
	Discipline string           `json:"discipline"`
	Metric     model.MetricKind `json:"metric"`
	Record     Mark             `json:"record"`
	SeasonBest Mark             `json:"season_best"`
	Points     *float64         `json:"points,omitempty"`
}

// Timeline is a discipline's ordered history and the tier it was built from.
type Timeline struct {
	AthleteID  string                `json:"athlete_id"`
	Discipline string                `json:"discipline,omitempty"`
	Source     string                `json:"source"`
	Points     []model.TimelinePoint `json:"points"`
}
