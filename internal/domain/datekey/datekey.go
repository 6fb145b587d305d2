// Package datekey converts dates to the canonical YYYY-MM-DD day key.
//
// Keys are built from local calendar fields. A timestamp is never reduced
// through UTC, so an evening event in a western timezone stays on its day.
package datekey

import (
	"fmt"
	"time"
)

// Layout is the canonical key layout.
const Layout = "2006-01-02"

// Key is a canonical YYYY-MM-DD day key.
type Key string

// timestamp layouts accepted by Parse, tried in order.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// Codec parses keys relative to a location.
type Codec struct {
	loc *time.Location
}

// Option configures a Codec.
type Option func(*Codec)

// WithLocation sets the location whose calendar fields produce keys.
func WithLocation(loc *time.Location) Option {
	return func(c *Codec) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// New returns a Codec using time.Local unless overridden.
func New(opts ...Option) *Codec {
	c := &Codec{loc: time.Local}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCodec = New() //nolint:gochecknoglobals // package-level convenience codec

// Parse normalizes s with the default codec.
func Parse(s string) (Key, error) { return defaultCodec.Parse(s) }

// Parse returns canonical input unchanged and converts timestamps to the
// codec location before taking their calendar fields.
func (c *Codec) Parse(s string) (Key, error) {
	if isCanonical(s) {
		return Key(s), nil
	}
	for _, layout := range layouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339 || layout == time.RFC3339Nano {
			t, err = time.Parse(layout, s)
			if err == nil {
				t = t.In(c.loc)
			}
		} else {
			t, err = time.ParseInLocation(layout, s, c.loc)
		}
		if err == nil {
			return FromTime(t), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKey, s)
}

// FromTime keys t by its own calendar fields.
func FromTime(t time.Time) Key {
	return Key(t.Format(Layout))
}

// FromParts builds a key from calendar fields. Out-of-range values are
// normalized the way time.Date does.
func FromParts(year int, month time.Month, day int) Key {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Time returns midnight of the key's day in loc.
func (k Key) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(Layout, string(k), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidKey, string(k))
	}
	return t, nil
}

// Valid reports whether k names a real calendar day.
func (k Key) Valid() bool {
	return isCanonical(string(k))
}

func (k Key) String() string { return string(k) }

// Truncate cuts a timestamp-looking string down to its first ten
// characters. Shorter strings are returned unchanged.
func Truncate(s string) string {
	if len(s) > len(Layout) {
		return s[:len(Layout)]
	}
	return s
}

// FirstOfMonth returns midnight on the first day of t's month in t's location.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// AddMonths shifts t's month by n and returns the first of that month.
func AddMonths(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isCanonical(s string) bool {
	if len(s) != len(Layout) {
		return false
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return false
	}
	return t.Format(Layout) == s
}
