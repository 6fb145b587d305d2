// Package navigation drives which month is displayed and the timed
// transition between months.
//
// The navigator is either idle or transitioning toward one target. Each
// GoTo stops the pending timer and takes a new generation token; a timer
// that fires with an old token is ignored, so only the latest target can
// ever become the displayed month.
package navigation

import (
	"sync"
	"time"

	"github.com/okian/planner/internal/domain/datekey"
	"github.com/okian/planner/internal/domain/observe"
	"github.com/okian/planner/pkg/metrics"
)

// DefaultDuration is the length of a month transition.
const DefaultDuration = 300 * time.Millisecond

// Direction is the visual direction of a transition.
type Direction string

// Directions. None is only seen while idle.
const (
	None     Direction = ""
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// State is a snapshot of the navigator. Incoming and Direction are set iff
// Transitioning.
type State struct {
	Displayed     time.Time
	Incoming      time.Time
	Direction     Direction
	Transitioning bool
}

// Timer is a pending completion.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// transition is the Transitioning state; nil means Idle.
type transition struct {
	target time.Time
	dir    Direction
	token  uint64
	timer  Timer
}

// Navigator is the month navigation state machine.
type Navigator struct {
	mu        sync.Mutex
	displayed time.Time
	pending   *transition
	token     uint64
	closed    bool

	duration time.Duration
	sched    Scheduler
	now      func() time.Time
	changes  observe.Hub[State]
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithDuration sets the transition length.
func WithDuration(d time.Duration) Option {
	return func(n *Navigator) {
		if d >= 0 {
			n.duration = d
		}
	}
}

// WithScheduler replaces the timer source.
func WithScheduler(s Scheduler) Option {
	return func(n *Navigator) {
		if s != nil {
			n.sched = s
		}
	}
}

// WithClock replaces time.Now for Today and the initial month.
func WithClock(now func() time.Time) Option {
	return func(n *Navigator) {
		if now != nil {
			n.now = now
		}
	}
}

// WithMonth sets the initially displayed month.
func WithMonth(t time.Time) Option {
	return func(n *Navigator) {
		n.displayed = datekey.FirstOfMonth(t)
	}
}

// New returns an idle navigator showing the current month.
func New(opts ...Option) *Navigator {
	n := &Navigator{
		duration: DefaultDuration,
		sched:    realScheduler{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.displayed.IsZero() {
		n.displayed = datekey.FirstOfMonth(n.now())
	}
	return n
}

// Subscribe registers fn for every state change.
func (n *Navigator) Subscribe(fn func(State)) (unsubscribe func()) {
	return n.changes.Subscribe(fn)
}

// State returns the current state.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stateLocked()
}

// Displayed returns the first of the displayed month.
func (n *Navigator) Displayed() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.displayed
}

// GoTo starts a transition toward target's month, superseding any pending
// one. A direction other than Forward or Backward is inferred from target:
// backward when it is before the displayed month, forward otherwise.
func (n *Navigator) GoTo(target time.Time, dir Direction) {
	target = datekey.FirstOfMonth(target)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	if dir != Forward && dir != Backward {
		dir = Forward
		if target.Before(n.displayed) {
			dir = Backward
		}
	}
	if n.pending != nil {
		n.pending.timer.Stop()
		metrics.RecordNavigationSuperseded()
	}
	n.token++
	tok := n.token
	t := &transition{target: target, dir: dir, token: tok}
	n.pending = t
	// The callback blocks on mu until this GoTo returns.
	t.timer = n.sched.AfterFunc(n.duration, func() { n.complete(tok) })
	st := n.stateLocked()
	n.mu.Unlock()

	metrics.RecordNavigationTransition(string(dir))
	n.changes.Publish(st)
}

// Previous moves to the month before the displayed one.
func (n *Navigator) Previous() {
	n.GoTo(datekey.AddMonths(n.Displayed(), -1), Backward)
}

// Next moves to the month after the displayed one.
func (n *Navigator) Next() {
	n.GoTo(datekey.AddMonths(n.Displayed(), 1), Forward)
}

// JumpToMonth moves to month m of the displayed year, backward when m is
// earlier than the displayed month.
func (n *Navigator) JumpToMonth(m time.Month) {
	cur := n.Displayed()
	dir := Forward
	if m < cur.Month() {
		dir = Backward
	}
	n.GoTo(time.Date(cur.Year(), m, 1, 0, 0, 0, 0, cur.Location()), dir)
}

// Today moves to the current month.
func (n *Navigator) Today() {
	n.GoTo(n.now(), Forward)
}

// Close stops any pending timer. Later calls to GoTo are ignored.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	if n.pending != nil {
		n.pending.timer.Stop()
		n.pending = nil
	}
}

func (n *Navigator) complete(tok uint64) {
	n.mu.Lock()
	if n.pending == nil || n.pending.token != tok {
		n.mu.Unlock()
		return
	}
	n.displayed = n.pending.target
	n.pending = nil
	st := n.stateLocked()
	n.mu.Unlock()

	n.changes.Publish(st)
}

func (n *Navigator) stateLocked() State {
	st := State{Displayed: n.displayed}
	if n.pending != nil {
		st.Incoming = n.pending.target
		st.Direction = n.pending.dir
		st.Transitioning = true
	}
	return st
}
