package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/palmares/internal/adapters/mq/queue"
	worker "github.com/okian/palmares/internal/adapters/mq/worker"
	logging "github.com/okian/palmares/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logging.Init(logging.WithLevel("error"))
}

type recorder struct {
	mu   sync.Mutex
	seen []string
	fail map[string]error
}

func (r *recorder) Apply(_ context.Context, job worker.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, job.SubmissionID)
	return r.fail[job.SubmissionID]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a single worker on a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		rec := &recorder{fail: map[string]error{"bad": errors.New("boom")}}
		w := worker.NewInMemoryWorker(q, rec, worker.WithName("w1"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When jobs are enqueued, including a failing one", func() {
			for _, id := range []string{"a", "bad", "b"} {
				convey.So(q.Enqueue(ctx, queue.Job{SubmissionID: id, AthleteID: "42", Year: 2024}), convey.ShouldBeNil)
			}

			convey.Convey("Then every job is applied and the worker keeps going", func() {
				deadline := time.Now().Add(2 * time.Second)
				for rec.count() < 3 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				convey.So(rec.count(), convey.ShouldEqual, 3)

				sctx, scancel := context.WithTimeout(context.Background(), time.Second)
				defer scancel()
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		rec := &recorder{}
		pool := worker.NewPool(4, q, rec)
		convey.So(pool.Size(), convey.ShouldEqual, 4)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		for i := 0; i < 50; i++ {
			convey.So(q.Enqueue(ctx, queue.Job{SubmissionID: fmt.Sprintf("s%d", i)}), convey.ShouldBeNil)
		}

		convey.Convey("When the pool shuts down", func() {
			err := pool.Shutdown(context.Background())

			convey.Convey("Then queued jobs are drained first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.count(), convey.ShouldEqual, 50)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				convey.So(pool.Active(), convey.ShouldEqual, 0)
			})
		})
	})

	convey.Convey("Given a pool with no explicit size", t, func() {
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), worker.ApplierFunc(func(context.Context, worker.Job) error { return nil }))
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
	})
}
