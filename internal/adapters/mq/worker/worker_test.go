package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/toplanma/internal/adapters/mq/queue"
	"github.com/okian/toplanma/internal/adapters/mq/worker"
	"github.com/okian/toplanma/internal/domain/model"
	logging "github.com/okian/toplanma/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logging.Init(); err != nil {
		panic(err)
	}
}

type mockQueue struct {
	jobs chan queue.Job
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	close(mq.jobs)
	return nil
}

type recordingHandler struct {
	mu       sync.Mutex
	handled  []string
	failFor  map[string]bool
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (h *recordingHandler) Handle(_ context.Context, job worker.Job) error {
	n := h.inFlight.Add(1)
	defer h.inFlight.Add(-1)
	for {
		p := h.peak.Load()
		if n <= p || h.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(h.delay)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failFor[job.Neighborhood.Name] {
		return errors.New("resolve failed")
	}
	h.handled = append(h.handled, job.Neighborhood.Name)
	return nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func jobFor(name string) queue.Job {
	return queue.Job{ProvinceCode: 1, DistrictID: "7", Neighborhood: model.Unit{ID: "1", Name: name}}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		ctx := context.Background()
		mq := newMockQueue()
		h := &recordingHandler{failFor: map[string]bool{"bad": true}}
		w := worker.NewInMemoryWorker(mq, h, worker.WithName("test-worker"))

		convey.Convey("When running a worker over queued jobs", func() {
			mq.jobs <- jobFor("a")
			mq.jobs <- jobFor("bad")
			mq.jobs <- jobFor("b")
			_ = mq.Close()
			w.Run(ctx)

			convey.Convey("Then a failing job does not stop the others", func() {
				convey.So(h.handled, convey.ShouldResemble, []string{"a", "b"})
			})
		})

		convey.Convey("When shutting down an idle worker", func() {
			go w.Run(ctx)
			err := w.Shutdown(ctx)

			convey.Convey("Then it should shutdown gracefully", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			done := make(chan struct{})
			go func() {
				w.Run(cctx)
				close(done)
			}()
			cancel()

			convey.Convey("Then worker should stop", func() {
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatal("worker did not stop")
				}
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of three workers over a real queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		h := &recordingHandler{delay: 5 * time.Millisecond}
		pool := worker.NewPool(3, q, h)
		pool.Start(ctx)

		convey.Convey("When more jobs than workers are enqueued and the queue is closed", func() {
			for i := 0; i < 20; i++ {
				convey.So(q.Enqueue(ctx, jobFor("n")), convey.ShouldBeNil)
			}
			_ = q.Close()
			pool.Wait()

			convey.Convey("Then every job is handled", func() {
				convey.So(h.count(), convey.ShouldEqual, 20)
			})

			convey.Convey("Then concurrency never exceeds the pool size", func() {
				convey.So(pool.Size(), convey.ShouldEqual, 3)
				convey.So(h.peak.Load(), convey.ShouldBeLessThanOrEqualTo, 3)
				convey.So(h.peak.Load(), convey.ShouldBeGreaterThan, 1)
			})
		})

		convey.Convey("When shutting down", func() {
			err := pool.Shutdown(ctx)

			convey.Convey("Then the queue is closed and workers stop", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool whose queue was already closed", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue()
		pool := worker.NewPool(2, q, &recordingHandler{})
		pool.Start(ctx)
		_ = q.Close()

		convey.Convey("When shutting down", func() {
			err := pool.Shutdown(ctx)

			convey.Convey("Then workers stop without closing the queue twice", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				pool.Wait()
			})
		})
	})

	convey.Convey("Given a pool with a non-positive size", t, func() {
		pool := worker.NewPool(0, newMockQueue(), worker.HandlerFunc(func(context.Context, worker.Job) error { return nil }))

		convey.Convey("Then the default size is used", func() {
			convey.So(pool.Size(), convey.ShouldEqual, 10)
		})
	})
}
