package service

import "errors"

// Sentinel kinds returned by the service.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrBackpressure      = errors.New("ingest queue is full")
	ErrNoPageSource      = errors.New("no page source configured")
	ErrNoPagesExtracted  = errors.New("no page could be extracted")
)
