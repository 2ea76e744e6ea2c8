package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/smarthr/internal/domain/model"
	"github.com/okian/smarthr/pkg/logger"
	"github.com/okian/smarthr/pkg/metrics"
)

const (
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = model.RescoreJob

// Rescorer recomputes and persists one employee's attrition risk.
type Rescorer interface {
	Rescore(ctx context.Context, employeeID string) error
}

// RescoreFunc adapts a function to Rescorer.
type RescoreFunc func(ctx context.Context, employeeID string) error

// Rescore implements Rescorer.
func (f RescoreFunc) Rescore(ctx context.Context, employeeID string) error { return f(ctx, employeeID) }

// DoneFunc observes a finished job. err is nil on success.
type DoneFunc func(ctx context.Context, j Job, err error)

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes rescore jobs.
type Worker interface {
	// Run consumes jobs until the queue closes, ctx is cancelled or Shutdown is called.
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	rescorer Rescorer
	onDone   DoneFunc
	name     string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	processed *atomic.Int64

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(q Queue, r Rescorer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		rescorer:  r,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		processed: new(atomic.Int64),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("worker")
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run implements Worker.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "rescore failed",
					logger.String("job_id", j.JobID),
					logger.String("employee_id", j.EmployeeID),
					logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker without waiting for the queue to drain.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j Job) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
		w.processed.Add(1)
		if w.onDone != nil {
			w.onDone(ctx, j, err)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rescore %s panicked: %v", j.EmployeeID, r)
		}
	}()

	if err := w.rescorer.Rescore(ctx, j.EmployeeID); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "rescore_error")
		return fmt.Errorf("rescore employee %s: %w", j.EmployeeID, err)
	}
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	processed     atomic.Int64
	lastProcessed int64
	lastTick      time.Time

	logger logger.Logger
}

// NewPool creates workerCount workers; values below one use runtime.NumCPU().
// Options apply to every worker.
func NewPool(workerCount int, q Queue, r Rescorer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		stop:     make(chan struct{}),
		lastTick: time.Now(),
	}
	// Options target workers; apply them to a scratch one to find a supplied logger.
	scratch := &InMemoryWorker{}
	for _, opt := range opts {
		opt(scratch)
	}
	if scratch.logger != nil {
		p.logger = scratch.logger.Named("pool")
	} else {
		p.logger = logger.Get().Named("worker-pool")
	}
	for i := range p.workers {
		w := NewInMemoryWorker(q, r, append(opts, WithName("worker-"+strconv.Itoa(i)))...)
		w.processed = &p.processed
		p.workers[i] = w
	}
	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerMessagesPerSecond(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of jobs handled so far.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start launches all workers and the metrics updater.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(metricsUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stop:
				return
			case <-ticker.C:
				p.updateMetrics()
			}
		}
	}()
}

func (p *Pool) updateMetrics() {
	now := time.Now()
	n := p.processed.Load()
	if secs := now.Sub(p.lastTick).Seconds(); secs > 0 {
		metrics.UpdateWorkerMessagesPerSecond(float64(n-p.lastProcessed) / secs)
	}
	p.lastProcessed, p.lastTick = n, now
}

// Shutdown closes the queue, lets workers drain what is buffered and waits
// for them. Workers still busy when ctx (or the pool timeout) expires are
// told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
		if timedOut {
			break
		}
	}

	p.stopOnce.Do(func() { close(p.stop) })
	for _, w := range p.workers {
		w.shutdownOnce.Do(func() { close(w.shutdown) })
	}
	p.wg.Wait()

	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
