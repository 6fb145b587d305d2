// Package modal tracks which day, if any, is open for inspection.
package modal

import (
	"sync"
	"time"

	"github.com/okian/planner/internal/domain/datekey"
	"github.com/okian/planner/internal/domain/observe"
)

// MonthSource reports the displayed month.
type MonthSource interface {
	Displayed() time.Time
}

// State is a snapshot of the modal. Day is empty when closed.
type State struct {
	Open bool
	Day  datekey.Key
}

// Controller owns the modal state. It never touches the event store.
type Controller struct {
	mu      sync.Mutex
	state   State
	months  MonthSource
	changes observe.Hub[State]
}

// New returns a closed controller reading the month from months.
func New(months MonthSource) *Controller {
	return &Controller{months: months}
}

// Subscribe registers fn for every state change.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	return c.changes.Subscribe(fn)
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OpenForDay opens day of the displayed month. Days outside the month are
// ignored and reported as false.
func (c *Controller) OpenForDay(day int) bool {
	if day <= 0 {
		return false
	}
	m := c.months.Displayed()
	if day > datekey.DaysIn(m.Year(), m.Month()) {
		return false
	}
	return c.Open(datekey.FromParts(m.Year(), m.Month(), day))
}

// Open opens the modal on key. Invalid keys are ignored.
func (c *Controller) Open(key datekey.Key) bool {
	if !key.Valid() {
		return false
	}
	c.set(State{Open: true, Day: key})
	return true
}

// Close clears the modal.
func (c *Controller) Close() {
	c.set(State{})
}

func (c *Controller) set(st State) {
	c.mu.Lock()
	if c.state == st {
		c.mu.Unlock()
		return
	}
	c.state = st
	c.mu.Unlock()

	c.changes.Publish(st)
}
