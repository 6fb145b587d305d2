// Package calendar lays out a month as a week-aligned grid of day cells.
package calendar

import (
	"time"

	"github.com/okian/planner/internal/domain/datekey"
)

// Counter reports how many events a day holds.
type Counter interface {
	Count(key datekey.Key) int
}

// Cell is one grid slot. Blank slots have Day == 0 and an empty Key.
type Cell struct {
	Day     int
	Key     datekey.Key
	Weekday time.Weekday
	Events  int
	Today   bool
}

// Blank reports whether c is padding outside the month.
func (c Cell) Blank() bool { return c.Day == 0 }

// Grid is a month padded to whole weeks.
type Grid struct {
	Month     time.Time
	WeekStart time.Weekday
	Cells     []Cell
}

// Build lays out month (any instant in it) starting weeks on weekStart.
// events may be nil. today marks the matching cell.
func Build(month time.Time, weekStart time.Weekday, events Counter, today datekey.Key) Grid {
	first := datekey.FirstOfMonth(month)
	days := datekey.DaysIn(first.Year(), first.Month())
	lead := (int(first.Weekday()) - int(weekStart) + 7) % 7

	total := lead + days
	if rem := total % 7; rem != 0 {
		total += 7 - rem
	}

	g := Grid{Month: first, WeekStart: weekStart, Cells: make([]Cell, total)}
	for i := range g.Cells {
		g.Cells[i].Weekday = time.Weekday((int(weekStart) + i) % 7)
	}
	for d := 1; d <= days; d++ {
		c := &g.Cells[lead+d-1]
		c.Day = d
		c.Key = datekey.FromParts(first.Year(), first.Month(), d)
		if events != nil {
			c.Events = events.Count(c.Key)
		}
		c.Today = c.Key == today
	}
	return g
}

// Weeks splits the grid into rows of seven cells.
func (g Grid) Weeks() [][]Cell {
	rows := make([][]Cell, 0, len(g.Cells)/7)
	for i := 0; i+7 <= len(g.Cells); i += 7 {
		rows = append(rows, g.Cells[i:i+7])
	}
	return rows
}

// Headers returns weekday names in grid column order.
func (g Grid) Headers() []string {
	out := make([]string, 7)
	for i := range out {
		out[i] = time.Weekday((int(g.WeekStart) + i) % 7).String()[:3]
	}
	return out
}
