// Package service wires storage, the submission queue and the ingestion
// engine together and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	eventqueue "github.com/okian/palmares/internal/adapters/mq/queue"
	workerpool "github.com/okian/palmares/internal/adapters/mq/worker"
	"github.com/okian/palmares/internal/adapters/pagesource"
	repository "github.com/okian/palmares/internal/adapters/repository"
	"github.com/okian/palmares/internal/domain/dedupe"
	"github.com/okian/palmares/internal/domain/ingest"
	"github.com/okian/palmares/internal/domain/model"
	"github.com/okian/palmares/internal/domain/perf"
	"github.com/okian/palmares/internal/domain/records"
	"github.com/okian/palmares/internal/domain/timeline"
	"github.com/okian/palmares/internal/domain/types"
	"github.com/okian/palmares/pkg/logger"
	"github.com/okian/palmares/pkg/metrics"
)

const (
	minYear  = 1900
	maxYear  = 2100
	cacheSep = "\x00"
)

// Service implements the API dependencies for the results engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	injected repository.Store
	deduper  dedupe.Deduper
	queue    eventqueue.Queue
	pool     *workerpool.Pool
	source   ingest.PageSource
	ingestor *ingest.Ingestor
	cache    *cache.Cache

	// Per-athlete serialization of read-modify-write cycles.
	locks sync.Map

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	yearConcurrency int
	maxPages        int
	storeDriver     string
	storeDSN        string
	cacheTTL        time.Duration
	currentYear     int
	now             func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithYearConcurrency caps concurrent season fetches on the pull path.
func WithYearConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.yearConcurrency = n
		}
	}
}

// WithMaxPages caps the number of pages in one submission.
func WithMaxPages(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPages = n
		}
	}
}

// WithStore selects the repository driver and its DSN.
func WithStore(driver, dsn string) Option {
	return func(s *Service) {
		if driver != "" {
			s.storeDriver = driver
			s.storeDSN = dsn
		}
	}
}

// WithRepository uses store instead of opening one from the configured
// driver. The service closes it on Stop.
func WithRepository(store repository.Store) Option {
	return func(s *Service) {
		s.injected = store
	}
}

// WithCacheTTL sets how long computed timelines stay cached. Zero disables
// the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithCurrentYear pins the season used for season bests. Zero follows the
// clock.
func WithCurrentYear(year int) Option {
	return func(s *Service) {
		if year >= 0 {
			s.currentYear = year
		}
	}
}

// WithPageSource enables the pull path.
func WithPageSource(src ingest.PageSource) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       1024,
		dedupeSize:      50_000,
		yearConcurrency: 4,
		maxPages:        64,
		storeDriver:     repository.DriverMemory,
		cacheTTL:        time.Minute,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the store and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting results service...")

	store := s.injected
	if store == nil {
		var err error
		if store, err = repository.Open(ctx, s.storeDriver, s.storeDSN); err != nil {
			return fmt.Errorf("service start: %w", err)
		}
	}
	s.store = store
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
	)
	if s.cacheTTL > 0 {
		s.cache = cache.New(s.cacheTTL, 2*s.cacheTTL)
	}
	if s.source != nil {
		s.ingestor = s.newIngestor(s.source)
	}

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s)
	s.pool.Start(ctx)

	s.started = true
	metrics.UpdateTotalAthletes(s.store.Count(ctx))
	s.logger.Info(ctx, "results service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("store", s.storeDriver),
		logger.Bool("pullPath", s.ingestor != nil),
	)

	return nil
}

// Stop drains the queue, waits for the workers and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping results service...")

	var errs []error
	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.cache != nil {
		s.cache.Flush()
	}

	s.started = false
	s.logger.Info(ctx, "results service stopped")
	return errors.Join(errs...)
}

// Submit validates a pushed athlete-season and queues it for extraction.
// A submission whose content was already accepted reports duplicate=true
// and is not queued again.
func (s *Service) Submit(ctx context.Context, athleteID string, sub types.Submission) (types.SubmitResult, error) {
	if !s.isStarted() {
		return types.SubmitResult{}, ErrNotStarted
	}
	athleteID = strings.TrimSpace(athleteID)
	if err := s.validate(athleteID, sub); err != nil {
		metrics.RecordSubmissionRejected()
		return types.SubmitResult{}, err
	}

	id := dedupe.SubmissionID(athleteID, sub.Year, sub.Pages)
	res := types.SubmitResult{SubmissionID: id}
	if s.deduper.SeenAndRecord(ctx, id) {
		metrics.RecordSubmissionDuplicate()
		s.logger.Debug(ctx, "duplicate submission",
			logger.Athlete(athleteID), logger.Year(sub.Year), logger.String("submission", id))
		res.Duplicate = true
		return res, nil
	}

	job := model.IngestJob{
		SubmissionID: id,
		AthleteID:    athleteID,
		Year:         sub.Year,
		Pages:        sub.Pages,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		// Let a retry of the same content through.
		s.deduper.Unrecord(ctx, id)
		metrics.RecordSubmissionRejected()
		if errors.Is(err, eventqueue.ErrFull) {
			return types.SubmitResult{}, ErrBackpressure
		}
		return types.SubmitResult{}, fmt.Errorf("submit: %w", err)
	}
	metrics.RecordSubmissionAccepted()
	metrics.UpdateQueueSize(s.queue.Len(ctx))
	return res, nil
}

func (s *Service) validate(athleteID string, sub types.Submission) error {
	switch {
	case athleteID == "":
		return fmt.Errorf("%w: %w", ErrInvalidSubmission, ingest.ErrInvalidAthlete)
	case sub.Year < minYear || sub.Year > maxYear:
		return fmt.Errorf("%w: %w: %d", ErrInvalidSubmission, ingest.ErrInvalidYear, sub.Year)
	case len(sub.Pages) == 0:
		return fmt.Errorf("%w: no pages", ErrInvalidSubmission)
	case len(sub.Pages) > s.maxPages:
		return fmt.Errorf("%w: %d pages exceeds the limit of %d", ErrInvalidSubmission, len(sub.Pages), s.maxPages)
	}
	return nil
}

// Apply extracts one queued season and folds it into the athlete's profile,
// replacing whatever that season held before. When it fails the submission
// ID is forgotten so the same pages can be submitted again.
func (s *Service) Apply(ctx context.Context, job model.IngestJob) error {
	err := s.apply(ctx, job)
	if err != nil && job.SubmissionID != "" && s.deduper != nil {
		s.deduper.Unrecord(ctx, job.SubmissionID)
	}
	return err
}

func (s *Service) apply(ctx context.Context, job model.IngestJob) error {
	start := time.Now()
	res, errs := ingest.ExtractYear(job.Year, job.Pages)
	for _, err := range errs {
		s.logger.Warn(ctx, "page skipped",
			logger.Athlete(job.AthleteID), logger.Year(job.Year), logger.Error(err))
	}
	if res.Pages == 0 {
		metrics.RecordYearFailed()
		return fmt.Errorf("apply %s/%d: %w", job.AthleteID, job.Year, ErrNoPagesExtracted)
	}

	unlock := s.lock(job.AthleteID)
	defer unlock()

	current, err := s.load(ctx, job.AthleteID)
	if err != nil {
		return fmt.Errorf("apply %s/%d: %w", job.AthleteID, job.Year, err)
	}
	set := model.NewResultSet()
	var known map[string]model.MetricKind
	if current != nil {
		set = current.ResultSet()
		known = current.Metrics
	}
	set.PutYear(job.Year, res.Bucket)
	metrics.RecordYearIngested()

	if err := s.save(ctx, job.AthleteID, set, known); err != nil {
		return fmt.Errorf("apply %s/%d: %w", job.AthleteID, job.Year, err)
	}
	took := time.Since(start)
	metrics.RecordIngestLatency(float64(took.Milliseconds()))
	s.logger.Info(ctx, "season applied",
		logger.Athlete(job.AthleteID),
		logger.Year(job.Year),
		logger.Int("pages", res.Pages),
		logger.Int("rows", res.Rows),
		logger.Int("dropped", res.Dropped),
		logger.Duration("took", took))
	return nil
}

// Ingest pulls the given seasons from the configured page source.
func (s *Service) Ingest(ctx context.Context, athleteID string, years []int) (ingest.Report, error) {
	if !s.isStarted() {
		return ingest.Report{}, ErrNotStarted
	}
	if s.ingestor == nil {
		return ingest.Report{}, ErrNoPageSource
	}
	return s.ingestWith(ctx, s.ingestor, athleteID, years)
}

// Seed ingests every athlete found under dir through the pull path and
// returns one report per athlete.
func (s *Service) Seed(ctx context.Context, dir string) ([]ingest.Report, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	src, err := pagesource.NewDir(dir)
	if err != nil {
		return nil, err
	}
	athletes, err := src.Athletes()
	if err != nil {
		return nil, err
	}
	ing := s.newIngestor(src)

	reports := make([]ingest.Report, 0, len(athletes))
	for _, id := range athletes {
		years, err := src.Years(id)
		if err != nil {
			s.logger.Warn(ctx, "seed: cannot list seasons", logger.Athlete(id), logger.Error(err))
			continue
		}
		rep, err := s.ingestWith(ctx, ing, id, years)
		if err != nil {
			if ctx.Err() != nil {
				return reports, ctx.Err()
			}
			s.logger.Warn(ctx, "seed: ingestion failed", logger.Athlete(id), logger.Error(err))
			continue
		}
		reports = append(reports, rep)
	}
	s.logger.Info(ctx, "seed complete", logger.String("dir", dir), logger.Int("athletes", len(reports)))
	return reports, nil
}

func (s *Service) ingestWith(ctx context.Context, ing *ingest.Ingestor, athleteID string, years []int) (ingest.Report, error) {
	athleteID = strings.TrimSpace(athleteID)
	for _, y := range years {
		if y < minYear || y > maxYear {
			return ingest.Report{AthleteID: athleteID}, fmt.Errorf("%w: %d", ingest.ErrInvalidYear, y)
		}
	}
	unlock := s.lock(athleteID)
	defer unlock()

	current, err := s.load(ctx, athleteID)
	if err != nil {
		return ingest.Report{AthleteID: athleteID}, err
	}
	set := model.NewResultSet()
	var known map[string]model.MetricKind
	if current != nil {
		set = current.ResultSet()
		known = current.Metrics
	}

	rep, err := ing.Ingest(ctx, athleteID, years, set)
	if err != nil {
		return rep, err
	}
	if !rep.Found {
		return rep, nil
	}
	if err := s.save(ctx, athleteID, set, known); err != nil {
		return rep, err
	}
	metrics.RecordIngestLatency(float64(rep.Duration.Milliseconds()))
	return rep, nil
}

func (s *Service) newIngestor(src ingest.PageSource) *ingest.Ingestor {
	return ingest.NewIngestor(src,
		ingest.WithConcurrency(s.yearConcurrency),
		ingest.WithLogger(s.logger.Named("ingest")),
	)
}

// load returns nil without error for an athlete never stored before.
func (s *Service) load(ctx context.Context, athleteID string) (*model.Profile, error) {
	p, err := s.store.Get(ctx, athleteID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (s *Service) save(ctx context.Context, athleteID string, set *model.ResultSet, known map[string]model.MetricKind) error {
	p := ingest.BuildProfile(athleteID, set, known, s.year(), s.now())
	if err := s.store.Put(ctx, p); err != nil {
		return err
	}
	s.invalidate(athleteID)
	metrics.RecordProfileUpdated()
	metrics.UpdateTotalAthletes(s.store.Count(ctx))
	return nil
}

// Profile returns the stored profile of an athlete.
func (s *Service) Profile(ctx context.Context, athleteID string) (*model.Profile, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.store.Get(ctx, strings.TrimSpace(athleteID))
}

// Timeline returns the athlete's dated history for discipline, or for every
// discipline when it is empty, from the most complete source available.
func (s *Service) Timeline(ctx context.Context, athleteID, discipline string) (types.Timeline, error) {
	return s.view(ctx, athleteID, "timeline", discipline, func(p *model.Profile) types.Timeline {
		pts, tier := timeline.Build(timeline.Sources{
			Persisted: p.PerformanceTimeline,
			Results:   p.ResultSet(),
			Merged:    p.MergedByEvent,
			Metrics:   p.Metrics,
		}, discipline)
		metrics.RecordTimelineBuild(string(tier))
		return types.Timeline{
			AthleteID:  p.AthleteID,
			Discipline: strings.TrimSpace(discipline),
			Source:     string(tier),
			Points:     pts,
		}
	})
}

// MergedByEvent returns the timeline built from the merged-by-event view
// only.
func (s *Service) MergedByEvent(ctx context.Context, athleteID, discipline string) (types.Timeline, error) {
	return s.view(ctx, athleteID, "merged", discipline, func(p *model.Profile) types.Timeline {
		metrics.RecordTimelineBuild(string(timeline.TierMerged))
		return types.Timeline{
			AthleteID:  p.AthleteID,
			Discipline: strings.TrimSpace(discipline),
			Source:     string(timeline.TierMerged),
			Points:     timeline.FromMerged(p.MergedByEvent, p.Metrics, discipline),
		}
	})
}

// view serves a cached view or builds it from the stored profile. A miss
// holds the athlete lock from load to cache write, so a concurrent save
// either happens before the load or invalidates after the write.
func (s *Service) view(ctx context.Context, athleteID, name, discipline string, build func(*model.Profile) types.Timeline) (types.Timeline, error) {
	key := cacheKey(athleteID, name, discipline)
	if v, ok := s.cached(key); ok {
		return v.(types.Timeline), nil
	}
	if !s.isStarted() {
		return types.Timeline{}, ErrNotStarted
	}
	athleteID = strings.TrimSpace(athleteID)
	unlock := s.lock(athleteID)
	defer unlock()

	if v, ok := s.cached(key); ok {
		return v.(types.Timeline), nil
	}
	p, err := s.store.Get(ctx, athleteID)
	if err != nil {
		return types.Timeline{}, err
	}
	tl := build(p)
	s.remember(key, tl)
	return tl, nil
}

// Records returns the personal best and season best of every event, in
// event key order.
func (s *Service) Records(ctx context.Context, athleteID string) ([]types.RecordView, error) {
	p, err := s.Profile(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	year := s.year()
	views := make([]types.RecordView, 0, len(p.MergedByEvent))
	for _, key := range model.SortedKeys(p.MergedByEvent) {
		kind := p.Metrics[key]
		entries := perf.Merged(key, kind, p.MergedByEvent[key])
		sel := records.Select(key, kind, entries, year)
		if sel.Record == nil {
			continue
		}
		view := types.RecordView{
			Key:        key,
			Discipline: label(p, key),
			Metric:     kind,
			Record:     mark(sel.Record),
			SeasonBest: mark(sel.SeasonBest),
		}
		if pts, ok := p.RecordPoints[key]; ok {
			view.Points = &pts
		}
		views = append(views, view)
	}
	return views, nil
}

func label(p *model.Profile, key string) string {
	if l, ok := p.Labels[key]; ok && l != "" {
		return l
	}
	return key
}

func mark(r *model.RecordEntry) types.Mark {
	e := r.Entry
	m := types.Mark{
		Raw:   e.RawValue,
		Wind:  e.Wind,
		Legal: e.Legal,
		Year:  e.Year,
		Venue: e.Venue,
	}
	if e.Numeric {
		v := e.Value
		m.Value = &v
		m.Formatted = perf.FormatValue(r.Metric, v)
	}
	if e.Dated() {
		d := e.Instant
		m.Date = &d
	}
	return m
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"store":       s.storeDriver,
		"currentYear": s.year(),
		"pullPath":    s.ingestor != nil,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		athletes := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["activeWorkers"] = s.pool.Active()
		stats["totalAthletes"] = athletes
		stats["submissionsSeen"] = s.deduper.Size()
		if s.cache != nil {
			stats["cachedViews"] = s.cache.ItemCount()
		}

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalAthletes(athletes)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Service) year() int {
	if s.currentYear > 0 {
		return s.currentYear
	}
	return s.now().Year()
}

func (s *Service) lock(athleteID string) func() {
	v, _ := s.locks.LoadOrStore(athleteID, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func cacheKey(athleteID, view, discipline string) string {
	return strings.TrimSpace(athleteID) + cacheSep + view + cacheSep + strings.ToLower(strings.TrimSpace(discipline))
}

func (s *Service) cached(key string) (interface{}, bool) {
	if s.cache == nil {
		return nil, false
	}
	v, ok := s.cache.Get(key)
	metrics.RecordCacheLookup(ok)
	return v, ok
}

func (s *Service) remember(key string, v interface{}) {
	if s.cache != nil {
		s.cache.Set(key, v, cache.DefaultExpiration)
	}
}

func (s *Service) invalidate(athleteID string) {
	if s.cache == nil {
		return
	}
	prefix := athleteID + cacheSep
	for k := range s.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			s.cache.Delete(k)
		}
	}
}
