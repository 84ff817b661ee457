package replay

import (
	"time"

	"github.com/okian/palmares/internal/domain/types"
)

// Config holds configuration for a replay run.
type Config struct {
	BaseURL string        // Base URL of the service
	Dir     string        // Page directory laid out as <athlete>/<year>/*.html
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	Settle  time.Duration // How long to wait for the queue to drain
	LogFile string        // Log file for run output
	Verbose bool          // Enable verbose logging
}

// Submission is one athlete-season read from the page directory.
type Submission struct {
	AthleteID string
	types.Submission
}

// AckResponse represents the response from a page submission.
type AckResponse struct {
	Status       string `json:"status"`
	Duplicate    bool   `json:"duplicate"`
	SubmissionID string `json:"submission_id"`
}

// Views are the query results fetched for one athlete.
type Views struct {
	AthleteID string
	Timeline  types.Timeline
	Merged    types.Timeline
	Records   []types.RecordView
}

// Stats holds run statistics.
type Stats struct {
	Athletes         int
	SeasonsSubmitted int
	SeasonsAccepted  int
	SeasonsDuplicate int
	SeasonsFailed    int
	ViewsRetrieved   int
	Violations       int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
