package model

import "time"

// IngestJob carries one submitted athlete-season through the queue.
type IngestJob struct {
	SubmissionID string
	AthleteID    string
	Year         int
	Pages        []string
	EnqueuedAt   time.Time
}
