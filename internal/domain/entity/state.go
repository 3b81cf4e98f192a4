// internal/domain/entity/state.go
package entity

import (
	"strconv"
	"time"

	"menstrual_tracker_daemon/internal/domain/calendar"
	"menstrual_tracker_daemon/internal/domain/cycle"
)

// Well-known state values, matching the host platform's conventions.
const (
	StateUnknown = "unknown"
	StateOn      = "on"
	StateOff     = "off"
)

// State is the published form of one entity, shaped like the Home Assistant
// REST API state object.
type State struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastUpdated time.Time      `json:"last_updated"`
}

// BuildStates renders the full entity list from a snapshot and the calendar
// events built alongside it. Sensors whose value is unavailable (percentiles
// without samples, predictions in pregnancy mode) report StateUnknown.
func BuildStates(snap cycle.Snapshot, events []calendar.Event, refreshedAt time.Time) []State {
	states := make([]State, 0, len(SensorDescriptors)+3)
	for _, d := range SensorDescriptors {
		states = append(states, State{
			EntityID:    "sensor." + d.Key,
			State:       sensorValue(d.Key, snap),
			Attributes:  d.attributes(),
			LastUpdated: refreshedAt,
		})
	}

	states = append(states, State{
		EntityID:    IDCurrentlyMenstruating,
		State:       onOff(snap.Menstruating),
		Attributes:  namedAttributes("Currently Menstruating"),
		LastUpdated: refreshedAt,
	})
	states = append(states, State{
		EntityID:    IDPregnancyMode,
		State:       onOff(snap.PregnancyMode),
		Attributes:  namedAttributes("Pregnancy Mode"),
		LastUpdated: refreshedAt,
	})
	states = append(states, calendarState(snap.Today, events, refreshedAt))
	return states
}

func sensorValue(key string, snap cycle.Snapshot) string {
	switch key {
	case "day_of_cycle":
		return strconv.Itoa(snap.DayOfCycle)
	case "fertility_window":
		if snap.FertilityWindowStart.IsZero() || snap.FertilityWindowEnd.IsZero() {
			return StateUnknown
		}
		return cycle.FormatDate(snap.FertilityWindowStart) + " - " + cycle.FormatDate(snap.FertilityWindowEnd)
	case "next_period_start":
		if snap.NextPeriodStart.IsZero() {
			return StateUnknown
		}
		return cycle.FormatDate(snap.NextPeriodStart)
	case "cycle_length":
		return formatAverage(snap.AvgCycleLength)
	case "period_length":
		return formatAverage(snap.AvgPeriodLength)
	case "cycle_length_p25":
		return percentileValue(snap.CycleStats, snap.CycleStats.P25)
	case "cycle_length_p50":
		return percentileValue(snap.CycleStats, snap.CycleStats.P50)
	case "cycle_length_p75":
		return percentileValue(snap.CycleStats, snap.CycleStats.P75)
	case "period_length_p25":
		return percentileValue(snap.PeriodStats, snap.PeriodStats.P25)
	case "period_length_p50":
		return percentileValue(snap.PeriodStats, snap.PeriodStats.P50)
	case "period_length_p75":
		return percentileValue(snap.PeriodStats, snap.PeriodStats.P75)
	}
	return StateUnknown
}

// percentileValue treats statistics without samples as absent.
func percentileValue(stats cycle.Statistics, value int) string {
	if stats.Count == 0 {
		return StateUnknown
	}
	return strconv.Itoa(value)
}

func formatAverage(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func onOff(b bool) string {
	if b {
		return StateOn
	}
	return StateOff
}

func calendarState(today time.Time, events []calendar.Event, refreshedAt time.Time) State {
	attrs := namedAttributes("Menstrual Cycle")
	state := StateOff
	for _, e := range events {
		if e.ContainsDay(today) {
			state = StateOn
			break
		}
	}
	if next, ok := calendar.Upcoming(events, today); ok {
		attrs["message"] = next.Summary
		attrs["start_time"] = cycle.FormatDate(next.Start)
		attrs["end_time"] = cycle.FormatDate(next.End)
		attrs["all_day"] = true
	}
	return State{
		EntityID:    IDCalendar,
		State:       state,
		Attributes:  attrs,
		LastUpdated: refreshedAt,
	}
}

func (d Descriptor) attributes() map[string]any {
	attrs := namedAttributes(d.Name)
	if d.Icon != "" {
		attrs["icon"] = d.Icon
	}
	if d.DeviceClass != "" {
		attrs["device_class"] = d.DeviceClass
	}
	return attrs
}

func namedAttributes(name string) map[string]any {
	return map[string]any{
		"friendly_name": name,
		"attribution":   Attribution,
	}
}
