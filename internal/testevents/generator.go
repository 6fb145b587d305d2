package testevents

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/okian/planner/internal/adapters/http/client"
	"github.com/okian/planner/internal/domain/datekey"
	"github.com/okian/planner/pkg/logger"
)

var activities = []string{ //nolint:gochecknoglobals // fixed sample vocabulary
	"Standup", "Dentist", "Groceries", "Gym", "Lunch with Sam", "Code review",
	"Call mom", "Pay rent", "Book club", "Yoga", "Team retro", "Water plants",
}

var palette = []struct{ name, color string }{ //nolint:gochecknoglobals // fixed sample vocabulary
	{"Work", "#3b82f6"},
	{"Health", "#22c55e"},
	{"Family", "#f97316"},
	{"Errands", "#a855f7"},
	{"Social", "#ec4899"},
	{"Learning", "#14b8a6"},
}

// Planned is one generated event and where it must end up.
type Planned struct {
	Tag      string
	Request  client.NewEvent
	Expected datekey.Key
	ID       string
}

// randomInt returns a uniform value in [0, n) using crypto/rand.
func randomInt(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// generateCategories returns up to n category requests.
func generateCategories(n int) []client.NewCategory {
	out := make([]client.NewCategory, 0, n)
	for i := 0; i < n; i++ {
		p := palette[i%len(palette)]
		name := p.name
		if i >= len(palette) {
			name = fmt.Sprintf("%s %d", p.name, i/len(palette)+1)
		}
		out = append(out, client.NewCategory{Name: name, Color: p.color})
	}
	return out
}

// generateEvents creates NumEvents events spread over the configured month.
// Every text carries a unique tag so verification can find it again.
func generateEvents(ctx context.Context, config *Config, categoryIDs []string, stats *Stats) []Planned {
	logger.Get().Info(ctx, "generating events", logger.Int("numEvents", config.NumEvents))

	first := datekey.FirstOfMonth(config.Month)
	days := datekey.DaysIn(first.Year(), first.Month())

	events := make([]Planned, config.NumEvents)
	for i := range events {
		events[i] = generateSingleEvent(first, days, categoryIDs)
	}
	stats.EventsGenerated = len(events)
	return events
}

// generateSingleEvent picks a day, a text and maybe a category. A third of
// the dates are sent as full timestamps to exercise server-side truncation.
func generateSingleEvent(first time.Time, days int, categoryIDs []string) Planned {
	tag := uuid.NewString()[:8]
	day := 1 + randomInt(days)
	key := datekey.FromParts(first.Year(), first.Month(), day)

	date := key.String()
	if randomInt(3) == 0 {
		date = fmt.Sprintf("%sT%02d:%02d:00Z", key, randomInt(24), randomInt(60))
	}

	req := client.NewEvent{
		Text: fmt.Sprintf("%s #%s", activities[randomInt(len(activities))], tag),
		Date: date,
	}
	if len(categoryIDs) > 0 && randomInt(2) == 0 {
		id := categoryIDs[randomInt(len(categoryIDs))]
		req.CategoryID = &id
	}
	return Planned{Tag: tag, Request: req, Expected: key}
}
