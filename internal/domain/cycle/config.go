// Package cycle holds the menstrual cycle domain model, from the
// user-supplied configuration to the derived per-day snapshot and length
// statistics. Everything here is pure date arithmetic; "today" is always
// passed in so the math is fully testable.
package cycle

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultCycleLength  = 28
	DefaultPeriodLength = 5
)

// Validation errors for Config.
var (
	ErrNonPositiveLength  = errors.New("cycle and period lengths must be positive")
	ErrPeriodExceedsCycle = errors.New("period length must be shorter than cycle length")
	ErrMissingAnchor      = errors.New("last period start date is required")
)

// Config is the user-supplied cycle configuration. LastPeriodStart anchors
// the cycle projection; the tracker substitutes the latest recorded period
// start once history exists.
type Config struct {
	LastPeriodStart time.Time
	CycleLength     int
	PeriodLength    int
}

// Validate checks the cross-field invariant cycle_length > period_length > 0
// and that an anchor date is present.
func (c Config) Validate() error {
	if c.LastPeriodStart.IsZero() {
		return ErrMissingAnchor
	}
	if c.CycleLength < 1 || c.PeriodLength < 1 {
		return ErrNonPositiveLength
	}
	if c.PeriodLength >= c.CycleLength {
		return fmt.Errorf("%w: period %d >= cycle %d", ErrPeriodExceedsCycle, c.PeriodLength, c.CycleLength)
	}
	return nil
}

// WithAnchor returns a copy of the config re-anchored to the given period
// start date.
func (c Config) WithAnchor(start time.Time) Config {
	c.LastPeriodStart = DateOf(start)
	return c
}

// Date builds the civil date y-m-d at midnight UTC. All cycle arithmetic
// happens on dates in this form so day differences are exact.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates an arbitrary timestamp to its civil date (in the
// timestamp's own location) represented at midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// DaysBetween returns the whole days from a to b; both must be midnight-UTC
// civil dates as produced by Date or DateOf.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// ParseDate parses an ISO 8601 date string (YYYY-MM-DD).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a civil date as YYYY-MM-DD. Zero times render as the
// empty string so callers can treat "no date" uniformly.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
