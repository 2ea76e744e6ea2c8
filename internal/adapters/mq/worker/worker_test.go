package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	queue "github.com/okian/smarthr/internal/adapters/mq/queue"
	worker "github.com/okian/smarthr/internal/adapters/mq/worker"
	model "github.com/okian/smarthr/internal/domain/model"
	logging "github.com/okian/smarthr/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logging.Init(); err != nil {
		panic(err)
	}
	goleak.VerifyTestMain(m)
}

type mockQueue struct {
	jobs chan model.RescoreJob
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan model.RescoreJob, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan model.RescoreJob { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type recordingRescorer struct {
	mu     sync.Mutex
	calls  []string
	errors map[string]error
	delay  time.Duration
}

func newRescorer() *recordingRescorer {
	return &recordingRescorer{errors: make(map[string]error)}
}

func (r *recordingRescorer) Rescore(ctx context.Context, employeeID string) error {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, employeeID)
	return r.errors[employeeID]
}

func (r *recordingRescorer) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func job(id string) model.RescoreJob {
	return model.RescoreJob{JobID: "job-" + id, EmployeeID: id, Requested: time.Now()}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a mock queue", t, func() {
		q := newMockQueue()
		r := newRescorer()
		r.errors["bad"] = errors.New("store unavailable")

		var (
			mu       sync.Mutex
			done     = map[string]error{}
			finished = make(chan struct{}, 10)
		)
		w := worker.NewInMemoryWorker(q, r,
			worker.WithName("test"),
			worker.WithLogger(logging.Nop()),
			worker.WithOnDone(func(_ context.Context, j model.RescoreJob, err error) {
				mu.Lock()
				done[j.EmployeeID] = err
				mu.Unlock()
				finished <- struct{}{}
			}),
		)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When jobs arrive", func() {
			q.jobs <- job("e1")
			q.jobs <- job("bad")
			for i := 0; i < 2; i++ {
				select {
				case <-finished:
				case <-time.After(time.Second):
					t.Fatal("jobs were not processed")
				}
			}
			_ = q.Close()

			shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
			defer stop()
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)

			convey.Convey("Then every job is rescored and reported", func() {
				convey.So(r.seen(), convey.ShouldResemble, []string{"e1", "bad"})
				mu.Lock()
				defer mu.Unlock()
				convey.So(done["e1"], convey.ShouldBeNil)
				convey.So(done["bad"], convey.ShouldNotBeNil)
				convey.So(done["bad"].Error(), convey.ShouldContainSubstring, "store unavailable")
			})
		})

		convey.Convey("When the worker is shut down", func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
			defer stop()
			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then it stops promptly and a second call is safe", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestInMemoryWorker_RecoversPanics(t *testing.T) {
	convey.Convey("Given a rescorer that panics", t, func() {
		q := newMockQueue()
		errCh := make(chan error, 1)
		w := worker.NewInMemoryWorker(q,
			worker.RescoreFunc(func(context.Context, string) error { panic("boom") }),
			worker.WithLogger(logging.Nop()),
			worker.WithOnDone(func(_ context.Context, _ model.RescoreJob, err error) { errCh <- err }),
		)
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)

		q.jobs <- job("e1")

		convey.Convey("Then the panic becomes an error and the worker survives", func() {
			select {
			case err := <-errCh:
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "panicked")
			case <-time.After(time.Second):
				t.Fatal("job was not processed")
			}
			cancel()
			shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
			defer stop()
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		r := newRescorer()
		p := worker.NewPool(4, q, r, worker.WithLogger(logging.Nop()))
		convey.So(p.Size(), convey.ShouldEqual, 4)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p.Start(ctx)

		convey.Convey("When jobs are enqueued and the pool shuts down", func() {
			for i := 0; i < 20; i++ {
				convey.So(q.TryEnqueue(ctx, job(fmt.Sprintf("e%d", i))), convey.ShouldBeNil)
			}
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			err := p.Shutdown(shutdownCtx)

			convey.Convey("Then buffered jobs are drained before the workers exit", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(r.seen(), convey.ShouldHaveLength, 20)
				convey.So(p.Processed(), convey.ShouldEqual, 20)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool whose context is cancelled first", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		p := worker.NewPool(2, q, newRescorer(), worker.WithLogger(logging.Nop()))
		ctx, cancel := context.WithCancel(context.Background())
		p.Start(ctx)
		cancel()

		convey.Convey("Then Shutdown still returns and leaves no goroutines behind", func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
			defer stop()
			convey.So(p.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a pool with a zero worker count", t, func() {
		p := worker.NewPool(0, newMockQueue(), newRescorer())
		convey.So(p.Size(), convey.ShouldBeGreaterThan, 0)
	})
}

func TestInMemoryWorker_SuppliedLogger(t *testing.T) {
	convey.Convey("Given a worker built with its own logger", t, func() {
		core, logs := observer.New(zapcore.DebugLevel)
		r := newRescorer()
		r.errors["e1"] = errors.New("store offline")
		q := newMockQueue()
		done := make(chan struct{}, 1)
		w := worker.NewInMemoryWorker(q, r,
			worker.WithName("rescore-1"),
			worker.WithLogger(logging.New(zap.New(core))),
			worker.WithOnDone(func(context.Context, model.RescoreJob, error) { done <- struct{}{} }),
		)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		q.jobs <- job("e1")

		convey.Convey("Then failures are logged there and not on the global logger", func() {
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("job was not processed")
			}
			shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
			defer stop()
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)

			failed := logs.FilterMessage("rescore failed").All()
			convey.So(failed, convey.ShouldHaveLength, 1)
			convey.So(failed[0].LoggerName, convey.ShouldEqual, "rescore-1")
		})
	})

	convey.Convey("Given a pool built with its own logger", t, func() {
		core, logs := observer.New(zapcore.DebugLevel)
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		p := worker.NewPool(1, q, newRescorer(), worker.WithLogger(logging.New(zap.New(core))))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p.Start(ctx)

		convey.Convey("Then shutdown succeeds without touching the global logger", func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 2*time.Second)
			defer stop()
			convey.So(p.Shutdown(shutdownCtx), convey.ShouldBeNil)
			convey.So(logs.FilterMessage("error closing queue").Len(), convey.ShouldEqual, 0)
		})
	})
}
