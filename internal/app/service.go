// Package service assembles the planner: local stores, the sync engine,
// month navigation, the day modal and the intent worker that serializes
// every mutation.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/okian/planner/internal/adapters/http/client"
	eventqueue "github.com/okian/planner/internal/adapters/mq/queue"
	"github.com/okian/planner/internal/adapters/mq/worker"
	"github.com/okian/planner/internal/adapters/repository"
	"github.com/okian/planner/internal/adapters/snapshot"
	"github.com/okian/planner/internal/app/engine"
	"github.com/okian/planner/internal/app/modal"
	"github.com/okian/planner/internal/app/navigation"
	"github.com/okian/planner/internal/config"
	"github.com/okian/planner/internal/domain/calendar"
	"github.com/okian/planner/internal/domain/datekey"
	"github.com/okian/planner/internal/domain/model"
	"github.com/okian/planner/pkg/logger"
	"github.com/okian/planner/pkg/metrics"
)

// OpReload names the periodic and initial full reload intent.
const OpReload = "reload"

// CategoriesKey is the snapshot key for the category list.
const CategoriesKey = "calendar-categories"

const stopTimeout = 5 * time.Second

// Status is a point-in-time view of the service.
type Status struct {
	Started    bool
	Events     int
	Buckets    int
	Categories int
	Queued     int
	LastSync   time.Time
	SyncErr    error
}

// Service implements the planner.
type Service struct {
	mu sync.Mutex

	cfg       *config.Config
	backend   engine.Backend
	scheduler navigation.Scheduler
	now       func() time.Time
	logger    logger.Logger

	snap       *snapshot.Store
	events     *repository.EventStore
	categories *repository.CategoryStore
	engine     *engine.Engine
	nav        *navigation.Navigator
	modal      *modal.Controller
	queue      *eventqueue.InMemoryQueue
	worker     *worker.InMemoryWorker
	cron       *cron.Cron
	unsubCats  func()

	started  bool
	stopped  bool
	cancel   context.CancelFunc
	lastSync time.Time
	syncErr  error
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithBackend replaces the REST client built from the configured base URL.
func WithBackend(b engine.Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithScheduler sets the timer source for month transitions.
func WithScheduler(sch navigation.Scheduler) Option {
	return func(s *Service) {
		if sch != nil {
			s.scheduler = sch
		}
	}
}

// WithClock replaces time.Now.
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

// New builds every component. Nothing runs until Start.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		cfg:    config.New(),
		now:    time.Now,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.backend == nil {
		c, err := client.New(s.cfg.BaseURL,
			client.WithTimeout(s.cfg.RequestTimeout()),
			client.WithLogger(s.logger.Named("client")))
		if err != nil {
			return nil, fmt.Errorf("build client: %w", err)
		}
		s.backend = c
	}

	storeOpts := []repository.Option{repository.WithLogger(s.logger.Named("store"))}
	if s.cfg.SnapshotDir != "" {
		snap, err := snapshot.Open(s.cfg.SnapshotDir, snapshot.WithCacheSize(s.cfg.SnapshotCacheBytes))
		if err != nil {
			return nil, fmt.Errorf("open snapshot: %w", err)
		}
		s.snap = snap
		storeOpts = append(storeOpts, repository.WithSnapshotter(snap))
	}
	s.events = repository.NewEventStore(storeOpts...)
	s.categories = repository.NewCategoryStore()
	s.engine = engine.New(s.backend, s.events, s.categories, engine.WithLogger(s.logger.Named("sync")))

	navOpts := []navigation.Option{
		navigation.WithDuration(s.cfg.TransitionDuration()),
		navigation.WithClock(s.now),
	}
	if s.scheduler != nil {
		navOpts = append(navOpts, navigation.WithScheduler(s.scheduler))
	}
	s.nav = navigation.New(navOpts...)
	s.modal = modal.New(s.nav)

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.cfg.QueueSize))
	s.worker = worker.NewInMemoryWorker(s.queue,
		worker.WithName("mutator"),
		worker.WithLogger(s.logger))
	return s, nil
}

// Start restores the local snapshot, starts the mutator worker and the
// resync schedule, then reloads from the backend. A failed reload leaves
// the restored data in place and is reported through Status.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}

	s.logger.Info(ctx, "starting planner service...", logger.String("backend", s.cfg.BaseURL))
	s.restore(ctx)
	if s.snap != nil {
		s.unsubCats = s.categories.Subscribe(func(repository.Change) { s.saveCategories() })
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.worker.Run(runCtx)

	if s.cfg.ResyncCron != "" {
		s.cron = cron.New()
		if _, err := s.cron.AddFunc(s.cfg.ResyncCron, s.scheduledReload); err != nil {
			cancel()
			s.mu.Unlock()
			return fmt.Errorf("%w: resync_cron: %w", config.ErrInvalidConfig, err)
		}
		s.cron.Start()
	}
	s.started = true
	s.mu.Unlock()

	if err := s.Do(ctx, OpReload, s.reload); err != nil {
		s.logger.Warn(ctx, "initial reload failed; serving local snapshot", logger.Error(err))
	}
	s.logger.Info(ctx, "planner service started",
		logger.Int("events", s.events.Len()),
		logger.Int("categories", s.categories.Len()),
		logger.Int("queueSize", s.cfg.QueueSize))
	return nil
}

// Stop gracefully shuts down the service. Queued intents still run. A
// stopped service cannot be started again.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started, s.stopped = false, true
	sched, cancelRun, unsub := s.cron, s.cancel, s.unsubCats
	s.cron = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping planner service...")
	if sched != nil {
		<-sched.Stop().Done()
	}
	_ = s.queue.Close()
	if err := s.worker.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker did not drain", logger.Error(err))
	}
	cancelRun()
	s.nav.Close()
	if unsub != nil {
		unsub()
	}
	s.logger.Info(ctx, "planner service stopped")
}

// Submit queues fn for the mutator worker and returns the intent id. The
// result is published to SubscribeOutcomes.
func (s *Service) Submit(ctx context.Context, op string, fn func(ctx context.Context, e *engine.Engine) error) (uuid.UUID, error) {
	job := eventqueue.NewJob(op, func(ctx context.Context) error { return fn(ctx, s.engine) })
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return uuid.Nil, fmt.Errorf("submit %s: %w", op, err)
	}
	return job.ID, nil
}

// Do submits fn and waits for its outcome.
func (s *Service) Do(ctx context.Context, op string, fn func(ctx context.Context, e *engine.Engine) error) error {
	var (
		id   uuid.UUID
		idMu sync.Mutex
		done = make(chan error, 1)
	)
	idMu.Lock()
	unsubscribe := s.worker.Subscribe(func(o worker.Outcome) {
		idMu.Lock()
		defer idMu.Unlock()
		if o.JobID == id {
			select {
			case done <- o.Err:
			default:
			}
		}
	})
	defer unsubscribe()

	id, err := s.Submit(ctx, op, fn)
	idMu.Unlock()
	if err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubscribeOutcomes registers fn for every finished intent.
func (s *Service) SubscribeOutcomes(fn func(worker.Outcome)) (unsubscribe func()) {
	return s.worker.Subscribe(fn)
}

// Reload queues a full resynchronization and waits for it.
func (s *Service) Reload(ctx context.Context) error {
	return s.Do(ctx, OpReload, s.reload)
}

// AddEvent creates an event through the worker.
func (s *Service) AddEvent(ctx context.Context, text, date string, categoryID *string) (model.Event, error) {
	var out model.Event
	err := s.Do(ctx, engine.OpCreateEvent, func(ctx context.Context, e *engine.Engine) error {
		var err error
		out, err = e.CreateEvent(ctx, text, date, categoryID)
		return err
	})
	return out, err
}

// EditEvent updates an event through the worker.
func (s *Service) EditEvent(ctx context.Context, id string, patch model.EventPatch) (model.Event, error) {
	var out model.Event
	err := s.Do(ctx, engine.OpUpdateEvent, func(ctx context.Context, e *engine.Engine) error {
		var err error
		out, err = e.UpdateEvent(ctx, id, patch)
		return err
	})
	return out, err
}

// RemoveEvent deletes an event through the worker.
func (s *Service) RemoveEvent(ctx context.Context, id string) error {
	var hint datekey.Key
	if e, ok := s.events.Find(id); ok {
		hint = e.Date
	}
	return s.Do(ctx, engine.OpDeleteEvent, func(ctx context.Context, e *engine.Engine) error {
		return e.DeleteEvent(ctx, id, hint)
	})
}

// AddCategory creates a category through the worker.
func (s *Service) AddCategory(ctx context.Context, name, color string) (model.Category, error) {
	var out model.Category
	err := s.Do(ctx, engine.OpCreateCategory, func(ctx context.Context, e *engine.Engine) error {
		var err error
		out, err = e.CreateCategory(ctx, name, color)
		return err
	})
	return out, err
}

// EditCategory updates a category through the worker.
func (s *Service) EditCategory(ctx context.Context, id string, patch model.CategoryPatch) (model.Category, error) {
	var out model.Category
	err := s.Do(ctx, engine.OpUpdateCategory, func(ctx context.Context, e *engine.Engine) error {
		var err error
		out, err = e.UpdateCategory(ctx, id, patch)
		return err
	})
	return out, err
}

// RemoveCategory deletes a category through the worker.
func (s *Service) RemoveCategory(ctx context.Context, id string) error {
	return s.Do(ctx, engine.OpDeleteCategory, func(ctx context.Context, e *engine.Engine) error {
		return e.DeleteCategory(ctx, id)
	})
}

// Events returns the local event store.
func (s *Service) Events() *repository.EventStore { return s.events }

// Categories returns the local category store.
func (s *Service) Categories() *repository.CategoryStore { return s.categories }

// Navigator returns the month navigator.
func (s *Service) Navigator() *navigation.Navigator { return s.nav }

// Modal returns the day modal controller.
func (s *Service) Modal() *modal.Controller { return s.modal }

// Month lays out the displayed month.
func (s *Service) Month() calendar.Grid {
	return calendar.Build(s.nav.Displayed(), s.cfg.WeekStartDay(), s.events, datekey.FromTime(s.now()))
}

// Navigate moves the displayed month by offset, one transition at a time,
// and returns once the last transition has settled.
func (s *Service) Navigate(ctx context.Context, offset int) error {
	for offset != 0 {
		idle := make(chan struct{}, 1)
		unsubscribe := s.nav.Subscribe(func(st navigation.State) {
			if !st.Transitioning {
				select {
				case idle <- struct{}{}:
				default:
				}
			}
		})
		if offset > 0 {
			s.nav.Next()
			offset--
		} else {
			s.nav.Previous()
			offset++
		}
		select {
		case <-idle:
			unsubscribe()
		case <-ctx.Done():
			unsubscribe()
			return ctx.Err()
		}
	}
	return nil
}

// Status returns service statistics for monitoring.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	queued := s.queue.Len(context.Background())
	metrics.UpdateQueueSize(queued)
	return Status{
		Started:    s.started,
		Events:     s.events.Len(),
		Buckets:    s.events.Buckets(),
		Categories: s.categories.Len(),
		Queued:     queued,
		LastSync:   s.lastSync,
		SyncErr:    s.syncErr,
	}
}

func (s *Service) reload(ctx context.Context, e *engine.Engine) error {
	err := e.Reload(ctx)
	s.mu.Lock()
	s.syncErr = err
	if err == nil {
		s.lastSync = s.now()
	}
	s.mu.Unlock()
	return err
}

// scheduledReload runs on the cron goroutine and must not block on the
// worker.
func (s *Service) scheduledReload() {
	ctx := context.Background()
	if _, err := s.Submit(ctx, OpReload, s.reload); err != nil {
		if errors.Is(err, eventqueue.ErrFull) {
			s.logger.Debug(ctx, "skipping scheduled reload; queue is full")
			return
		}
		s.logger.Warn(ctx, "scheduled reload not queued", logger.Error(err))
	}
}

func (s *Service) restore(ctx context.Context) {
	if s.snap == nil {
		return
	}
	if ok, err := s.events.Restore(ctx); err != nil {
		s.logger.Warn(ctx, "event snapshot unreadable", logger.Error(err))
	} else if ok {
		s.logger.Info(ctx, "events restored from snapshot", logger.Int("events", s.events.Len()))
	}

	var cats []model.Category
	found, err := s.snap.LoadJSON(CategoriesKey, &cats)
	if err != nil {
		metrics.RecordSnapshotError()
		s.logger.Warn(ctx, "category snapshot unreadable", logger.Error(err))
		return
	}
	if found {
		s.categories.ReplaceAll(ctx, cats)
	}
}

func (s *Service) saveCategories() {
	if err := s.snap.SaveJSON(CategoriesKey, s.categories.List()); err != nil {
		metrics.RecordSnapshotError()
		s.logger.Warn(context.Background(), "category snapshot write failed", logger.Error(err))
		return
	}
	metrics.RecordSnapshotWrite()
}
