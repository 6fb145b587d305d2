package testevents

import (
	"context"
	"fmt"

	"github.com/okian/planner/internal/adapters/http/client"
	"github.com/okian/planner/internal/adapters/repository"
	"github.com/okian/planner/internal/app/engine"
	"github.com/okian/planner/pkg/logger"
)

// verifyResults reloads a fresh pair of stores from the backend and checks
// that every accepted event sits in the bucket for its day, unchanged.
func verifyResults(ctx context.Context, c *client.Client, events []Planned, stats *Stats) error {
	logger.Get().Info(ctx, "verifying results through a full reload")

	store := repository.NewEventStore()
	categories := repository.NewCategoryStore()
	if err := engine.New(c, store, categories).Reload(ctx); err != nil {
		return fmt.Errorf("reload: %w", err)
	}

	var problems []string
	for _, p := range events {
		if p.ID == "" {
			continue
		}
		if msg := checkEvent(store, categories, p); msg != "" {
			problems = append(problems, msg)
			continue
		}
		stats.EventsVerified++
	}
	stats.EventsMissing = len(problems)

	for i, msg := range problems {
		if i == 10 {
			logger.Get().Warn(ctx, "more problems omitted", logger.Int("remaining", len(problems)-i))
			break
		}
		logger.Get().Warn(ctx, "verification problem", logger.String("detail", msg))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d of %d events failed verification", len(problems), stats.EventsSuccessful)
	}

	logger.Get().Info(ctx, "result verification completed",
		logger.Int("verified", stats.EventsVerified),
		logger.Int("buckets", store.Buckets()),
		logger.Int("categories", categories.Len()))
	return nil
}

// checkEvent returns an empty string when p round-tripped intact.
func checkEvent(store *repository.EventStore, categories *repository.CategoryStore, p Planned) string {
	got, ok := store.Find(p.ID)
	switch {
	case !ok:
		return fmt.Sprintf("%s (%s): not found", p.Tag, p.ID)
	case got.Date != p.Expected:
		return fmt.Sprintf("%s: stored under %s, want %s", p.Tag, got.Date, p.Expected)
	case got.Text != p.Request.Text:
		return fmt.Sprintf("%s: text %q, want %q", p.Tag, got.Text, p.Request.Text)
	}

	found := false
	for _, e := range store.Bucket(p.Expected) {
		if e.ID == p.ID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Sprintf("%s: missing from bucket %s", p.Tag, p.Expected)
	}

	if p.Request.CategoryID != nil {
		if !got.HasCategory(*p.Request.CategoryID) {
			return fmt.Sprintf("%s: category reference lost", p.Tag)
		}
		if _, ok := categories.Get(*p.Request.CategoryID); !ok {
			return fmt.Sprintf("%s: category %s not loaded", p.Tag, *p.Request.CategoryID)
		}
	}
	return ""
}
