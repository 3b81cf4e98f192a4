// internal/domain/calendar/event.go
package calendar

import "time"

// Summaries of the generated (non user-authored) calendar events.
const (
	SummaryMenstruation         = "Menstruation"
	SummaryDetectedMenstruation = "Detected Menstruation"
	SummaryPredictedPeriod      = "Predicted Period"
	SummaryFertilityWindow      = "Fertility Window"
)

// Event is one all-day calendar entry. Start is inclusive, End exclusive,
// the usual all-day boundary convention.
type Event struct {
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// LastDay returns the final day the event covers (End is exclusive).
func (e Event) LastDay() time.Time {
	return e.End.AddDate(0, 0, -1)
}

// ContainsDay reports whether the event covers the given civil date.
func (e Event) ContainsDay(day time.Time) bool {
	return !day.Before(e.Start) && day.Before(e.End)
}
