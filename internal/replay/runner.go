package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/palmares/internal/adapters/pagesource"
	"github.com/okian/palmares/internal/domain/types"
	"github.com/okian/palmares/pkg/logger"
)

// Run executes the complete replay.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting palmares replay",
		logger.String("baseURL", config.BaseURL),
		logger.String("dir", config.Dir),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Read the page directory
	athletes, subs, err := collectSubmissions(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("reading pages failed: %w", err)
	}

	// Step 3: Submit seasons concurrently
	submitSeasons(ctx, config, subs, stats)

	// Step 4: Wait for the ingest queue to drain
	if err := waitForDrain(ctx, config, len(athletes)); err != nil {
		return fmt.Errorf("waiting for ingestion failed: %w", err)
	}

	// Step 5: Retrieve views concurrently
	views := retrieveViews(ctx, config, athletes, stats)

	// Step 6: Verify results
	verr := verifyResults(ctx, config, views, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if verr != nil {
		return fmt.Errorf("result verification failed: %w", verr)
	}
	logger.Get().Info(ctx, "replay completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return err
	}

	// The service answers with the Prometheus exposition.
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// collectSubmissions reads every athlete-season under config.Dir. Athletes
// without any page are left out.
func collectSubmissions(ctx context.Context, config *Config, stats *Stats) ([]string, []Submission, error) {
	src, err := pagesource.NewDir(config.Dir)
	if err != nil {
		return nil, nil, err
	}
	athletes, err := src.Athletes()
	if err != nil {
		return nil, nil, err
	}

	var (
		subs      []Submission
		submitted []string
	)
	for _, id := range athletes {
		years, err := src.Years(id)
		if err != nil {
			return nil, nil, err
		}
		n := len(subs)
		for _, y := range years {
			pages, err := src.Pages(ctx, id, y)
			if err != nil {
				return nil, nil, err
			}
			if len(pages) == 0 {
				continue
			}
			subs = append(subs, Submission{AthleteID: id, Submission: types.Submission{Year: y, Pages: pages}})
		}
		if len(subs) > n {
			submitted = append(submitted, id)
		}
	}
	stats.Athletes = len(submitted)

	logger.Get().Info(ctx, "pages collected",
		logger.Int("athletes", len(submitted)),
		logger.Int("seasons", len(subs)))
	return submitted, subs, nil
}

// waitForDrain polls /stats until the queue is empty, no worker is busy and
// at least want athletes are stored, on two consecutive polls.
func waitForDrain(ctx context.Context, config *Config, want int) error {
	client := newHTTPClient(config.Timeout)
	ctx, cancel := context.WithTimeout(ctx, config.Settle)
	defer cancel()

	ticker := time.NewTicker(DrainPollInterval)
	defer ticker.Stop()
	idle := 0
	for {
		var stats map[string]interface{}
		if err := client.getJSON(ctx, config.BaseURL+"/stats", &stats); err == nil && drained(stats, want) {
			idle++
		} else {
			idle = 0
		}
		if idle >= 2 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func drained(stats map[string]interface{}, want int) bool {
	athletes, _ := stats["totalAthletes"].(float64)
	return stats["queueLength"] == float64(0) &&
		stats["activeWorkers"] == float64(0) &&
		int(athletes) >= want
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(stats *Stats) {
	var acceptRate, seasonsPerSecond float64

	if stats.SeasonsSubmitted > 0 {
		acceptRate = float64(stats.SeasonsAccepted+stats.SeasonsDuplicate) / float64(stats.SeasonsSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		seasonsPerSecond = float64(stats.SeasonsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("athletes", stats.Athletes),
		logger.Int("seasonsSubmitted", stats.SeasonsSubmitted),
		logger.Int("seasonsAccepted", stats.SeasonsAccepted),
		logger.Int("seasonsDuplicate", stats.SeasonsDuplicate),
		logger.Int("seasonsFailed", stats.SeasonsFailed),
		logger.Int("viewsRetrieved", stats.ViewsRetrieved),
		logger.Int("violations", stats.Violations),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("seasonsPerSecond", seasonsPerSecond))
}
