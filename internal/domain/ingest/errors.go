package ingest

import "errors"

// Sentinel kinds for ingestion errors.
var (
	// ErrAthleteNotFound is returned by a PageSource when the archive has no
	// match for the athlete. Ingestion turns it into an empty result.
	ErrAthleteNotFound = errors.New("athlete not found in archive")
	ErrInvalidAthlete  = errors.New("invalid athlete id")
	ErrInvalidYear     = errors.New("invalid season year")
)
