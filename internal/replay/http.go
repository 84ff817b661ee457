package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// getJSON decodes a 200 response into v.
func (c *HTTPClient) getJSON(ctx context.Context, url string, v interface{}) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("GET %s: status %d: %s", url, resp.StatusCode, bytes.TrimSpace(body))
	}
	return json.Unmarshal(body, v)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// submitSeasons submits seasons concurrently using a worker pool.
func submitSeasons(ctx context.Context, config *Config, subs []Submission, stats *Stats) {
	log.Printf("📤 Submitting %d seasons with %d workers...", len(subs), config.Workers)

	client := newHTTPClient(config.Timeout)

	var (
		accepted  int64
		duplicate int64
		failed    int64
	)

	subChan := make(chan Submission, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range subChan {
				if ctx.Err() != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}
				switch submitSingleSeason(ctx, client, config.BaseURL, sub) {
				case "accepted":
					atomic.AddInt64(&accepted, 1)
				case "duplicate":
					atomic.AddInt64(&duplicate, 1)
				default:
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						log.Printf("⚠️  Submission failed for %s/%d", sub.AthleteID, sub.Year)
					}
				}
			}
		}()
	}

	for _, sub := range subs {
		subChan <- sub
	}
	close(subChan)
	wg.Wait()

	stats.SeasonsSubmitted = len(subs)
	stats.SeasonsAccepted = int(atomic.LoadInt64(&accepted))
	stats.SeasonsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.SeasonsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Season submission completed:
   Accepted: %d
   Duplicate: %d
   Failed: %d
`, stats.SeasonsAccepted, stats.SeasonsDuplicate, stats.SeasonsFailed)
}

// submitSingleSeason submits one season and returns the outcome.
func submitSingleSeason(ctx context.Context, client *HTTPClient, baseURL string, sub Submission) string {
	resp, err := client.Post(ctx, athleteURL(baseURL, sub.AthleteID, "pages"), sub.Submission)
	if err != nil {
		return "failed"
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	var ack AckResponse
	switch resp.StatusCode {
	case StatusAccepted:
		return "accepted"
	case StatusOK:
		if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
			return "duplicate"
		}
		return "accepted"
	default:
		return "failed"
	}
}
