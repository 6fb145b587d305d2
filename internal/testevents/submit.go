package testevents

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/planner/internal/adapters/http/client"
	"github.com/okian/planner/pkg/logger"
)

// createCategories creates the categories sequentially and returns their ids.
func createCategories(ctx context.Context, c *client.Client, reqs []client.NewCategory, stats *Stats) ([]string, error) {
	ids := make([]string, 0, len(reqs))
	for _, req := range reqs {
		cat, err := c.CreateCategory(ctx, req)
		if err != nil {
			return ids, fmt.Errorf("create category %q: %w", req.Name, err)
		}
		ids = append(ids, cat.ID)
	}
	stats.CategoriesCreated = len(ids)
	logger.Get().Info(ctx, "categories created", logger.Int("count", len(ids)))
	return ids, nil
}

// submitEvents posts events concurrently using a worker pool and records the
// server id of every accepted event in place.
func submitEvents(ctx context.Context, config *Config, c *client.Client, events []Planned, stats *Stats) {
	logger.Get().Info(ctx, "submitting events",
		logger.Int("events", len(events)),
		logger.Int("workers", config.Workers))

	var (
		successful int64
		failed     int64
		submitted  int64
	)

	// Progress reporting
	var (
		reportMu   sync.Mutex
		lastReport time.Time
	)
	reportInterval := 1 * time.Second

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				if ctx.Err() != nil {
					return
				}
				created, err := c.CreateEvent(ctx, events[index].Request)

				atomic.AddInt64(&submitted, 1)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						logger.Get().Warn(ctx, "event rejected",
							logger.String("tag", events[index].Tag), logger.Error(err))
					}
				} else {
					events[index].ID = created.ID
					atomic.AddInt64(&successful, 1)
				}

				reportMu.Lock()
				if time.Since(lastReport) >= reportInterval {
					lastReport = time.Now()
					logger.Get().Info(ctx, "progress",
						logger.Int("submitted", int(atomic.LoadInt64(&submitted))),
						logger.Int("total", len(events)),
						logger.Int("failed", int(atomic.LoadInt64(&failed))))
				}
				reportMu.Unlock()
			}
		}()
	}

	// Send indices to workers
	go func() {
		defer close(indexChan)
		for i := range events {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.EventsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.EventsSuccessful = int(atomic.LoadInt64(&successful))
	stats.EventsFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "event submission completed",
		logger.Int("successful", stats.EventsSuccessful),
		logger.Int("failed", stats.EventsFailed))
}
