// Package queue holds user intents waiting for the mutator worker.
//
// Intents are closures over sync engine calls. Running them one at a time
// from a single consumer keeps store mutations strictly ordered.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/planner/pkg/metrics"
)

const defaultQueueCapacity = 256

// Job is one queued intent.
type Job struct {
	ID       uuid.UUID
	Op       string
	Run      func(ctx context.Context) error
	Enqueued time.Time
}

// NewJob wraps run under a fresh id.
func NewJob(op string, run func(ctx context.Context) error) Job {
	return Job{ID: uuid.New(), Op: op, Run: run, Enqueued: time.Now()}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It fails with ErrFull or ErrClosed.
	Enqueue(ctx context.Context, j Job) error
	// Dequeue returns the channel jobs arrive on. It is closed by Close.
	Dequeue(ctx context.Context) <-chan Job
	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int
	// Close stops accepting jobs. Already queued jobs stay readable.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a job without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejection("closed")
		return fmt.Errorf("%w: %s", ErrClosed, j.Op)
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueRejection("context_cancelled")
		return err
	}

	select {
	case q.jobs <- j:
		metrics.UpdateQueueSize(len(q.jobs))
		return nil
	default:
		metrics.RecordQueueRejection("full")
		return fmt.Errorf("%w: %s", ErrFull, j.Op)
	}
}

// Dequeue returns the job channel.
func (q *InMemoryQueue) Dequeue(context.Context) <-chan Job {
	return q.jobs
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(context.Context) int {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops accepting jobs and closes the channel.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
