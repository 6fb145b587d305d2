package testevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/planner/internal/adapters/http/client"
	"github.com/okian/planner/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	outputPermission    = 0600
)

// ErrNoEvents is returned when there is nothing to save.
var ErrNoEvents = errors.New("no events to save")

// Run executes the complete seed run.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		StartTime: time.Now(),
	}
	if config.Month.IsZero() {
		config.Month = time.Now()
	}
	if config.Workers < 1 {
		config.Workers = 1
	}

	logger.Get().Info(ctx, "starting planner seed run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("events", config.NumEvents),
		logger.Int("categories", config.NumCategories),
		logger.Int("workers", config.Workers),
		logger.String("month", config.Month.Format("2006-01")),
		logger.Duration("timeout", config.Timeout))

	c, err := client.New(config.BaseURL, client.WithTimeout(config.Timeout))
	if err != nil {
		return stats, fmt.Errorf("build client: %w", err)
	}

	// Step 1: Check the backend answers
	if err := checkBackend(ctx, c); err != nil {
		return stats, fmt.Errorf("backend check failed: %w", err)
	}

	// Step 2: Create categories
	categoryIDs, err := createCategories(ctx, c, generateCategories(config.NumCategories), stats)
	if err != nil {
		return stats, fmt.Errorf("category creation failed: %w", err)
	}

	// Step 3: Generate and submit events concurrently
	events := generateEvents(ctx, config, categoryIDs, stats)
	submitEvents(ctx, config, c, events, stats)
	if ctx.Err() != nil {
		return stats, fmt.Errorf("event submission interrupted: %w", ctx.Err())
	}

	// Step 4: Verify through a reload
	verifyErr := verifyResults(ctx, c, events, stats)

	// Step 5: Save events to file
	if config.OutputFile != "" {
		if err := saveEventsToFile(ctx, config.OutputFile, events); err != nil {
			logger.Get().Warn(ctx, "failed to save events to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if verifyErr != nil {
		return stats, fmt.Errorf("result verification failed: %w", verifyErr)
	}
	logger.Get().Info(ctx, "seed run completed successfully")
	return stats, nil
}

// checkBackend verifies the backend is reachable.
func checkBackend(ctx context.Context, c *client.Client) error {
	logger.Get().Info(ctx, "checking backend")
	cats, err := c.ListCategories(ctx)
	if err != nil {
		return err
	}
	logger.Get().Info(ctx, "backend is reachable", logger.Int("categories", len(cats)))
	return nil
}

// saveEventsToFile writes the planned events, with their server ids, as JSON.
func saveEventsToFile(ctx context.Context, filename string, events []Planned) error {
	if len(events) == 0 {
		return ErrNoEvents
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}
	if err := os.WriteFile(filename, data, outputPermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "events saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, eventsPerSecond float64

	if stats.EventsSubmitted > 0 {
		successRate = float64(stats.EventsSuccessful) / float64(stats.EventsSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("categoriesCreated", stats.CategoriesCreated),
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("eventsSubmitted", stats.EventsSubmitted),
		logger.Int("eventsSuccessful", stats.EventsSuccessful),
		logger.Int("eventsFailed", stats.EventsFailed),
		logger.Int("eventsVerified", stats.EventsVerified),
		logger.Int("eventsMissing", stats.EventsMissing),
		logger.Duration("duration", stats.Duration),
		logger.Any("successRate", successRate),
		logger.Any("eventsPerSecond", eventsPerSecond))
}
