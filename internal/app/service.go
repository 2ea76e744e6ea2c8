// Package service implements every HR action on top of the store, the rule
// engines and the narrative generator. The HTTP API and the CLI depend on it.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	rescorequeue "github.com/okian/smarthr/internal/adapters/mq/queue"
	workerpool "github.com/okian/smarthr/internal/adapters/mq/worker"
	"github.com/okian/smarthr/internal/adapters/llm"
	"github.com/okian/smarthr/internal/adapters/repository"
	"github.com/okian/smarthr/internal/domain/dedupe"
	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/internal/domain/narrative"
	"github.com/okian/smarthr/internal/domain/scoring"
	"github.com/okian/smarthr/pkg/logger"
	"github.com/okian/smarthr/pkg/metrics"
)

// ErrNotStarted is returned by actions that need the worker pool before Start.
var ErrNotStarted = errors.New("service not started")

const defaultMaxListLimit = 500

// Service implements the API dependencies for the HR portal.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	engine    *scoring.RiskEngine
	prompts   *narrative.Builder
	generator llm.Generator
	tracker   dedupe.Tracker
	queue     *rescorequeue.InMemoryQueue
	pool      *workerpool.Pool

	workerCount  int
	queueSize    int
	dedupeSize   int
	maxListLimit int

	now   func() time.Time
	newID func() string

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence backend. Without it Start uses a MemStore.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithRiskEngine replaces the default attrition risk engine.
func WithRiskEngine(e *scoring.RiskEngine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithPrompts sets the narrative prompt templates.
func WithPrompts(b *narrative.Builder) Option {
	return func(s *Service) {
		if b != nil {
			s.prompts = b
		}
	}
}

// WithGenerator sets the narrative generator. The default always fails, so
// every narrative comes from the local fallback.
func WithGenerator(g llm.Generator) Option {
	return func(s *Service) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithWorkerCount sets the number of rescore workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the rescore queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the pending-rescore tracker.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxListLimit caps list sizes.
func WithMaxListLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxListLimit = n
		}
	}
}

// WithClock overrides time.Now for timestamps and tenure.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides uuid generation for new records.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
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

// New constructs a Service. Components not supplied by options get defaults.
func New(opts ...Option) *Service {
	s := &Service{
		engine:       scoring.NewRiskEngine(),
		generator:    llm.Disabled{},
		workerCount:  runtime.NumCPU(),
		queueSize:    10_000,
		dedupeSize:   50_000,
		maxListLimit: defaultMaxListLimit,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.prompts == nil {
		s.prompts = narrative.MustDefaultBuilder()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start initializes the store (when none was given) and the rescore pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting hr service...")

	if s.store == nil {
		s.store = repository.NewMemStore(ctx)
		s.logger.Info(ctx, "using in-memory store")
	}
	s.tracker = dedupe.NewTracker(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = rescorequeue.NewInMemoryQueue(rescorequeue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, workerpool.RescoreFunc(s.Rescore),
		workerpool.WithLogger(s.logger.Named("rescore")),
		workerpool.WithOnDone(func(ctx context.Context, j model.RescoreJob, _ error) {
			s.tracker.Release(ctx, j.EmployeeID)
		}),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "hr service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("narrative", llm.ProviderOf(s.generator)),
	)
	return nil
}

// Stop drains the rescore queue and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping hr service...")

	var errs []error
	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	s.started = false
	s.logger.Info(ctx, "hr service stopped")
	return errors.Join(errs...)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"narrative":   llm.ProviderOf(s.generator),
	}
	if !s.started {
		return stats
	}

	stats["queueLength"] = s.queue.Len(ctx)
	stats["pendingRescores"] = s.tracker.Pending()
	stats["rescoresProcessed"] = s.pool.Processed()
	if n, err := s.store.CountEmployees(ctx); err == nil {
		stats["employees"] = n
		metrics.UpdateEmployeeCount(n)
	}
	metrics.UpdateWorkerCount(s.workerCount)
	return stats
}

// Store exposes the underlying store to the CLI.
func (s *Service) Store() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// clampLimit applies the list cap: zero or anything above the cap means the cap.
func (s *Service) clampLimit(limit int) (int, error) {
	if limit < 0 {
		return 0, model.Invalidf("limit must not be negative, got %d", limit)
	}
	if limit == 0 || limit > s.maxListLimit {
		return s.maxListLimit, nil
	}
	return limit, nil
}

// observeAction records the outcome and latency of one action.
func (s *Service) observeAction(action string, start time.Time, err error) {
	metrics.RecordActionDuration(action, float64(time.Since(start).Microseconds())/1000)
	metrics.RecordAction(action, outcomeOf(err))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

// computationFailure logs the detail of an unexpected failure and returns the
// generic error the caller sees.
func (s *Service) computationFailure(ctx context.Context, what string, err error) error {
	s.logger.Error(ctx, "error calculating "+what, logger.Error(err))
	metrics.RecordErrorByComponent("service", what)
	return fmt.Errorf("%w: error calculating %s", model.ErrComputation, what)
}

// classify passes not-found and validation errors through and turns anything
// else into a computation failure.
func (s *Service) classify(ctx context.Context, what string, err error) error {
	if err == nil || errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrValidation) {
		return err
	}
	return s.computationFailure(ctx, what, err)
}
