// internal/domain/history/log.go
package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"menstrual_tracker_daemon/internal/domain/cycle"
)

// DailyLog is one user-recorded observation for a single day. Several logs
// may exist for the same day; CreatedAt orders them.
type DailyLog struct {
	ID           uuid.UUID
	Day          time.Time
	Menstruating bool
	Flow         FlowLevel
	Symptoms     []string
	CreatedAt    time.Time
}

// DedupeKey identifies a log for import merging: two logs with the same day,
// menstruating flag, flow and symptom list (order included) count as one.
func (l *DailyLog) DedupeKey() string {
	return fmt.Sprintf("%s|%t|%s|%s",
		cycle.FormatDate(l.Day), l.Menstruating, l.Flow, strings.Join(l.Symptoms, ","))
}

// LogFilter narrows a daily-log deletion. Nil fields are not constrained.
// Symptoms are compared as a set, unlike DedupeKey.
type LogFilter struct {
	Menstruating *bool
	Flow         *FlowLevel
	Symptoms     []string
}

// Matches reports whether the log satisfies every constrained field of the
// filter.
func (l *DailyLog) Matches(f LogFilter) bool {
	if f.Menstruating != nil && l.Menstruating != *f.Menstruating {
		return false
	}
	if f.Flow != nil && l.Flow != *f.Flow {
		return false
	}
	if f.Symptoms != nil && !sameSymptomSet(l.Symptoms, f.Symptoms) {
		return false
	}
	return true
}

func sameSymptomSet(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	other := make(map[string]struct{}, len(b))
	for _, s := range b {
		other[s] = struct{}{}
	}
	if len(set) != len(other) {
		return false
	}
	for s := range set {
		if _, ok := other[s]; !ok {
			return false
		}
	}
	return true
}
