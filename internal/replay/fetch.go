package replay

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// athleteURL builds <base>/athletes/<id>[/<suffix>].
func athleteURL(baseURL, athleteID, suffix string) string {
	u := strings.TrimRight(baseURL, "/") + "/athletes/" + url.PathEscape(athleteID)
	if suffix != "" {
		u += "/" + suffix
	}
	return u
}

// retrieveViews fetches timeline, merged view and records of every athlete
// concurrently. Athletes whose views cannot be fetched are logged and left
// out.
func retrieveViews(ctx context.Context, config *Config, athletes []string, stats *Stats) []Views {
	log.Printf("🔎 Retrieving views for %d athletes with %d workers...", len(athletes), config.Workers)

	client := newHTTPClient(config.Timeout)
	results := make([]Views, len(athletes))
	ok := make([]bool, len(athletes))
	var mu sync.Mutex
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for i, id := range athletes {
		g.Go(func() error {
			v, err := retrieveAthleteViews(gctx, client, config.BaseURL, id)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				if config.Verbose {
					log.Printf("⚠️  Failed to get views for %s: %v", id, err)
				}
				return nil
			}
			results[i], ok[i] = v, true
			return nil
		})
	}
	_ = g.Wait()

	views := make([]Views, 0, len(athletes))
	for i, v := range results {
		if ok[i] {
			views = append(views, v)
		}
	}
	stats.ViewsRetrieved = len(views)

	log.Printf(`✅ View retrieval completed:
   Retrieved: %d
   Failed: %d
`, len(views), failed)
	return views
}

func retrieveAthleteViews(ctx context.Context, client *HTTPClient, baseURL, athleteID string) (Views, error) {
	v := Views{AthleteID: athleteID}
	if err := client.getJSON(ctx, athleteURL(baseURL, athleteID, "timeline"), &v.Timeline); err != nil {
		return v, fmt.Errorf("timeline: %w", err)
	}
	if err := client.getJSON(ctx, athleteURL(baseURL, athleteID, "events"), &v.Merged); err != nil {
		return v, fmt.Errorf("events: %w", err)
	}
	if err := client.getJSON(ctx, athleteURL(baseURL, athleteID, "records"), &v.Records); err != nil {
		return v, fmt.Errorf("records: %w", err)
	}
	return v, nil
}
