// Package ingest fetches, extracts and accumulates an athlete's seasons and
// rebuilds the derived profile.
package ingest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/palmares/internal/domain/extract"
	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/pkg/logger"
	"github.com/okian/palmares/pkg/metrics"
)

const defaultConcurrency = 4

// Report summarizes one ingestion run.
type Report struct {
	AthleteID string         `json:"athleteId"`
	Found     bool           `json:"found"`
	Requested []int          `json:"requested"`
	Succeeded []int          `json:"succeeded"`
	Failed    map[int]string `json:"failed,omitempty"`
	Pages     int            `json:"pages"`
	Rows      int            `json:"rows"`
	Dropped   int            `json:"dropped"`
	Duration  time.Duration  `json:"duration"`
}

// Partial reports whether at least one season failed.
func (r Report) Partial() bool { return len(r.Failed) > 0 }

// YearResult is the outcome of extracting one season's pages.
type YearResult struct {
	Year    int
	Bucket  model.EventBucket
	Pages   int
	Rows    int
	Dropped int
}

// ExtractYear runs the table extractor over every page of one season and
// concatenates them in page order. A malformed page is skipped.
func ExtractYear(year int, pages []string) (YearResult, []error) {
	res := YearResult{Year: year}
	var (
		extracted []extract.Page
		errs      []error
	)
	for _, markup := range pages {
		p, err := extract.Extract(markup)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		metrics.RecordPageExtracted()
		extracted = append(extracted, p)
		res.Pages++
		res.Rows += p.Rows
		res.Dropped += p.Dropped
	}
	metrics.RecordRows(res.Rows, res.Dropped)
	res.Bucket = extract.Merge(extracted...)
	return res, errs
}

// Ingestor pulls seasons from a PageSource into a result set.
type Ingestor struct {
	source      PageSource
	concurrency int
	logger      logger.Logger
}

// NewIngestor creates an ingestor reading from source.
func NewIngestor(source PageSource, opts ...Option) *Ingestor {
	i := &Ingestor{
		source:      source,
		concurrency: defaultConcurrency,
		logger:      logger.Get().Named("ingest"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest fetches every requested season concurrently and stores each
// successful one into set, replacing that season's previous bucket. A failed
// season is logged and skipped. When the archive does not know the athlete
// and no season yielded a page, set is left untouched and the report has
// Found=false; otherwise a not-found season is one more failed season. The
// only error returned is ctx's.
func (i *Ingestor) Ingest(ctx context.Context, athleteID string, years []int, set *model.ResultSet) (Report, error) {
	start := time.Now()
	athleteID = strings.TrimSpace(athleteID)
	rep := Report{
		AthleteID: athleteID,
		Found:     true,
		Requested: append([]int(nil), years...),
		Succeeded: []int{},
		Failed:    map[int]string{},
	}
	if athleteID == "" {
		return rep, ErrInvalidAthlete
	}

	var (
		mu       sync.Mutex
		notFound = map[int]string{}
		results  []YearResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for _, year := range years {
		g.Go(func() error {
			pages, err := i.source.Pages(gctx, athleteID, year)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				defer mu.Unlock()
				if errors.Is(err, ErrAthleteNotFound) {
					notFound[year] = err.Error()
					return nil
				}
				rep.Failed[year] = err.Error()
				metrics.RecordYearFailed()
				metrics.RecordErrorByComponent("ingest", "fetch")
				i.logger.Warn(gctx, "season fetch failed, skipping",
					logger.Athlete(athleteID), logger.Year(year), logger.Error(err))
				return nil
			}

			res, errs := ExtractYear(year, pages)
			for _, perr := range errs {
				i.logger.Warn(gctx, "page skipped",
					logger.Athlete(athleteID), logger.Year(year), logger.Error(perr))
			}
			if res.Dropped > 0 {
				i.logger.Debug(gctx, "rows dropped",
					logger.Athlete(athleteID), logger.Year(year), logger.Int("dropped", res.Dropped))
			}

			mu.Lock()
			defer mu.Unlock()
			if len(pages) > 0 && res.Pages == 0 {
				rep.Failed[year] = extract.ErrMalformedPage.Error()
				metrics.RecordYearFailed()
				return nil
			}
			results = append(results, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return rep, err
	}

	if len(notFound) > 0 && !anyPages(results) {
		i.logger.Info(ctx, "athlete not found in archive", logger.Athlete(athleteID))
		rep.Found = false
		rep.Failed = map[int]string{}
		rep.Duration = time.Since(start)
		return rep, nil
	}

	for year, msg := range notFound {
		rep.Failed[year] = msg
		metrics.RecordYearFailed()
		i.logger.Warn(ctx, "season not found, skipping", logger.Athlete(athleteID), logger.Year(year))
	}

	sort.Slice(results, func(a, b int) bool { return results[a].Year < results[b].Year })
	for _, res := range results {
		set.PutYear(res.Year, res.Bucket)
		rep.Succeeded = append(rep.Succeeded, res.Year)
		rep.Pages += res.Pages
		rep.Rows += res.Rows
		rep.Dropped += res.Dropped
		metrics.RecordYearIngested()
	}
	rep.Duration = time.Since(start)

	i.logger.Info(ctx, "athlete ingested",
		logger.Athlete(athleteID),
		logger.Int("years", len(rep.Succeeded)),
		logger.Int("failed", len(rep.Failed)),
		logger.Int("rows", rep.Rows),
		logger.Duration("took", rep.Duration))
	return rep, nil
}

func anyPages(results []YearResult) bool {
	for _, r := range results {
		if r.Pages > 0 {
			return true
		}
	}
	return false
}
