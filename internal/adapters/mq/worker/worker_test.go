package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/planner/internal/adapters/mq/queue"
	worker "github.com/okian/planner/internal/adapters/mq/worker"
	"github.com/smartystreets/goconvey/convey"
)

type collector struct {
	mu   sync.Mutex
	list []worker.Outcome
}

func (c *collector) add(o worker.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = append(c.list, o)
}

func (c *collector) all() []worker.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]worker.Outcome, len(c.list))
	copy(out, c.list)
	return out
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker on an in-memory queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		w := worker.NewInMemoryWorker(q, worker.WithName("mutator"))
		got := &collector{}
		w.Subscribe(got.add)

		convey.Convey("When jobs are queued", func() {
			var order []int
			for i := 0; i < 5; i++ {
				i := i
				convey.So(q.Enqueue(ctx, queue.NewJob("create_event", func(context.Context) error {
					order = append(order, i)
					return nil
				})), convey.ShouldBeNil)
			}
			failing := queue.NewJob("delete_event", func(context.Context) error { return errors.New("404") })
			convey.So(q.Enqueue(ctx, failing), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, queue.NewJob("boom", func(context.Context) error { panic("bad intent") })), convey.ShouldBeNil)
			_ = q.Close()

			w.Run(ctx)

			convey.Convey("Then they run sequentially in order", func() {
				convey.So(order, convey.ShouldResemble, []int{0, 1, 2, 3, 4})
			})

			convey.Convey("Then each produces an outcome", func() {
				outs := got.all()
				convey.So(len(outs), convey.ShouldEqual, 7)
				convey.So(outs[5].JobID, convey.ShouldEqual, failing.ID)
				convey.So(outs[5].Err, convey.ShouldNotBeNil)
				convey.So(outs[6].Err.Error(), convey.ShouldContainSubstring, "panicked")
			})
		})

		convey.Convey("When shut down while idle", func() {
			go w.Run(ctx)
			convey.So(q.Enqueue(ctx, queue.NewJob("reload", func(context.Context) error { return nil })), convey.ShouldBeNil)

			sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)

			convey.Convey("Then buffered jobs were still executed", func() {
				convey.So(len(got.all()), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			w.Run(cctx)
			select {
			case <-w.Done():
			default:
				convey.So("worker still running", convey.ShouldBeEmpty)
			}
		})
	})
}
