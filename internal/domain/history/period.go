// internal/domain/history/period.go
package history

import (
	"database/sql"
	"time"

	"menstrual_tracker_daemon/internal/domain/cycle"
)

// Period is one recorded menstruation. Start and End are inclusive civil
// dates; End stays unset while the period is still running.
type Period struct {
	ID    int64
	Start time.Time
	End   sql.NullTime // To handle periods without a recorded end
}

// EndExclusive returns the day after the period's last day, the boundary
// calendar events use. Open-ended periods are assumed to run for
// fallbackLength days.
func (p *Period) EndExclusive(fallbackLength int) time.Time {
	if p.End.Valid {
		return p.End.Time.AddDate(0, 0, 1)
	}
	return p.Start.AddDate(0, 0, fallbackLength)
}

// LengthDays returns the inclusive day count of a completed period. The
// second return is false while the period has no recorded end.
func (p *Period) LengthDays() (int, bool) {
	if !p.End.Valid {
		return 0, false
	}
	return cycle.DaysBetween(p.Start, p.End.Time) + 1, true
}
