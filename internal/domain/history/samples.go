// internal/domain/history/samples.go
package history

import (
	"sort"

	"menstrual_tracker_daemon/internal/domain/cycle"
)

// CycleLengthSamples measures the day gaps between successive recorded
// period starts. Fewer than two periods yield no samples.
func CycleLengthSamples(periods []*Period) []int {
	if len(periods) < 2 {
		return nil
	}
	starts := make([]*Period, len(periods))
	copy(starts, periods)
	sort.Slice(starts, func(i, j int) bool { return starts[i].Start.Before(starts[j].Start) })

	samples := make([]int, 0, len(starts)-1)
	for i := 1; i < len(starts); i++ {
		samples = append(samples, cycle.DaysBetween(starts[i-1].Start, starts[i].Start))
	}
	return samples
}

// PeriodLengthSamples measures the inclusive day count of every completed
// period. Open-ended periods contribute nothing.
func PeriodLengthSamples(periods []*Period) []int {
	samples := make([]int, 0, len(periods))
	for _, p := range periods {
		if days, ok := p.LengthDays(); ok {
			samples = append(samples, days)
		}
	}
	if len(samples) == 0 {
		return nil
	}
	return samples
}
