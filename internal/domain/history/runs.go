// internal/domain/history/runs.go
package history

import (
	"sort"
	"time"
)

// Run is a span of consecutive menstruating days detected from daily logs.
// Both bounds are inclusive.
type Run struct {
	Start time.Time
	End   time.Time
}

// MenstruatingRuns groups the distinct menstruating days among the logs into
// consecutive spans, oldest first. Non-menstruating logs are ignored, and
// several logs on the same day collapse into one.
func MenstruatingRuns(logs []*DailyLog) []Run {
	seen := make(map[time.Time]struct{}, len(logs))
	days := make([]time.Time, 0, len(logs))
	for _, l := range logs {
		if !l.Menstruating {
			continue
		}
		if _, ok := seen[l.Day]; ok {
			continue
		}
		seen[l.Day] = struct{}{}
		days = append(days, l.Day)
	}
	if len(days) == 0 {
		return nil
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	runs := make([]Run, 0, 1)
	start, prev := days[0], days[0]
	for _, d := range days[1:] {
		if d.Sub(prev).Hours() == 24 {
			prev = d
			continue
		}
		runs = append(runs, Run{Start: start, End: prev})
		start, prev = d, d
	}
	return append(runs, Run{Start: start, End: prev})
}
