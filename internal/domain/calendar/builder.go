// internal/domain/calendar/builder.go
package calendar

import (
	"fmt"
	"strings"
	"time"

	"menstrual_tracker_daemon/internal/domain/cycle"
	"menstrual_tracker_daemon/internal/domain/history"
)

// BuildEvents assembles every calendar event the tracker publishes, in
// source order: recorded periods, daily logs, detected menstruation runs,
// then the predictions. Predictions are dropped in pregnancy mode, and the
// fertility windows additionally hide behind showFertility.
func BuildEvents(snap cycle.Snapshot, periods []*history.Period, logs []*history.DailyLog, showFertility bool) []Event {
	events := make([]Event, 0, len(periods)+len(logs)+2*len(snap.Projections))

	// A recorded period without an end is assumed to span the configured
	// period length.
	for _, p := range periods {
		events = append(events, Event{
			Summary: SummaryMenstruation,
			Start:   p.Start,
			End:     p.EndExclusive(snap.Config.PeriodLength),
		})
	}

	for _, l := range logs {
		events = append(events, Event{
			Summary: logSummary(l),
			Start:   l.Day,
			End:     l.Day.AddDate(0, 0, 1),
		})
	}

	for _, run := range history.MenstruatingRuns(logs) {
		events = append(events, Event{
			Summary: SummaryDetectedMenstruation,
			Start:   run.Start,
			End:     run.End.AddDate(0, 0, 1),
		})
	}

	if snap.PregnancyMode {
		return events
	}

	for _, proj := range snap.Projections {
		events = append(events, Event{
			Summary: SummaryPredictedPeriod,
			Start:   proj.PeriodStart,
			End:     proj.PeriodStart.AddDate(0, 0, snap.Config.PeriodLength),
		})
	}
	if showFertility {
		for _, proj := range snap.Projections {
			events = append(events, Event{
				Summary: SummaryFertilityWindow,
				Start:   proj.FertilityWindowStart,
				End:     proj.FertilityWindowEnd.AddDate(0, 0, 1),
			})
		}
	}
	return events
}

// logSummary annotates a daily log for the calendar.
func logSummary(l *history.DailyLog) string {
	var summary string
	if l.Menstruating {
		summary = fmt.Sprintf("Period: %s", l.Flow)
	} else {
		summary = fmt.Sprintf("Daily Log: Not menstruating (flow: %s)", l.Flow)
	}
	if len(l.Symptoms) > 0 {
		summary += fmt.Sprintf(", symptoms: %s", strings.Join(l.Symptoms, ", "))
	}
	return summary
}

// InRange filters events overlapping the inclusive civil-date range
// [from, to], preserving order.
func InRange(events []Event, from, to time.Time) []Event {
	matched := make([]Event, 0, len(events))
	for _, e := range events {
		if !e.Start.After(to) && !e.LastDay().Before(from) {
			matched = append(matched, e)
		}
	}
	return matched
}

// Upcoming picks the next event to surface: among events whose exclusive
// end is on or after today, the one with the earliest start. Ties keep the
// earlier source position.
func Upcoming(events []Event, today time.Time) (Event, bool) {
	var next Event
	found := false
	for _, e := range events {
		if e.End.Before(today) {
			continue
		}
		if !found || e.Start.Before(next.Start) {
			next = e
			found = true
		}
	}
	return next, found
}
