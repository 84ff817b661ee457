package ingest

import "context"

// PageSource fetches the raw results pages of one athlete-season. A season
// with no results yields no pages and no error.
type PageSource interface {
	Pages(ctx context.Context, athleteID string, year int) ([]string, error)
}

// PageSourceFunc adapts a function to PageSource.
type PageSourceFunc func(ctx context.Context, athleteID string, year int) ([]string, error)

// Pages calls f.
func (f PageSourceFunc) Pages(ctx context.Context, athleteID string, year int) ([]string, error) {
	return f(ctx, athleteID, year)
}
