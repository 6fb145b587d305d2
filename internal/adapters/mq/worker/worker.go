// Package worker runs queued intents one at a time.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/planner/internal/adapters/mq/queue"
	"github.com/okian/planner/internal/domain/observe"
	"github.com/okian/planner/pkg/logger"
	"github.com/okian/planner/pkg/metrics"
)

// Queue defines how the worker receives jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Outcome is the result of one job.
type Outcome struct {
	JobID    uuid.UUID
	Op       string
	Err      error
	Duration time.Duration
}

// InMemoryWorker is the single mutator: it executes jobs sequentially in
// queue order.
type InMemoryWorker struct {
	queue  Queue
	name   string
	logger logger.Logger

	outcomes observe.Hub[Outcome]

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}
}

// NewInMemoryWorker creates a worker reading from q.
func NewInMemoryWorker(q Queue, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		name:     "worker",
		logger:   logger.Nop(),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Subscribe registers fn for every finished job.
func (w *InMemoryWorker) Subscribe(fn func(Outcome)) (unsubscribe func()) {
	return w.outcomes.Subscribe(fn)
}

// Run executes jobs until the queue closes, ctx is cancelled or Shutdown
// is called. On Shutdown, jobs already buffered are drained first.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			w.drain(ctx, jobs)
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Shutdown stops the worker after the buffered jobs and waits for it.
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

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) drain(ctx context.Context, jobs <-chan queue.Job) {
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		default:
			return
		}
	}
}

// process runs one job. A panic inside the job is turned into an error so
// one bad intent cannot stop the worker.
func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) {
	start := time.Now()
	err := w.run(ctx, job)
	took := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		w.logger.Warn(ctx, "job failed",
			logger.String("job_id", job.ID.String()),
			logger.String("op", job.Op),
			logger.Error(err))
	}
	metrics.RecordJob(job.Op, outcome, float64(took.Milliseconds()))

	w.outcomes.Publish(Outcome{JobID: job.ID, Op: job.Op, Err: err, Duration: took})
}

func (w *InMemoryWorker) run(ctx context.Context, job queue.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Op, r)
		}
	}()
	if job.Run == nil {
		return fmt.Errorf("job %s has no body", job.Op)
	}
	return job.Run(ctx)
}
