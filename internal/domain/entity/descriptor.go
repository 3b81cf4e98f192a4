// internal/domain/entity/descriptor.go
package entity

// Attribution is attached to every published entity state.
const Attribution = "Cycle data calculated locally"

// Entity IDs outside the sensor domain.
const (
	IDCurrentlyMenstruating = "binary_sensor.currently_menstruating"
	IDPregnancyMode         = "switch.pregnancy_mode"
	IDCalendar              = "calendar.menstrual_cycle"
)

// Descriptor describes one published sensor: its entity-id key, display
// name and presentation hints. Empty hint fields are omitted from the
// attributes.
type Descriptor struct {
	Key         string
	Name        string
	Icon        string
	DeviceClass string
}

// SensorDescriptors lists every numeric/date sensor the tracker exposes.
var SensorDescriptors = []Descriptor{
	{Key: "day_of_cycle", Name: "Day of Cycle", Icon: "mdi:calendar-today"},
	{Key: "fertility_window", Name: "Predicted Fertility Window", Icon: "mdi:calendar-heart"},
	{Key: "next_period_start", Name: "Next Period Start", DeviceClass: "date"},
	{Key: "cycle_length", Name: "Average Cycle Length", Icon: "mdi:calendar-clock"},
	{Key: "period_length", Name: "Average Period Length", Icon: "mdi:calendar-range"},
	{Key: "cycle_length_p25", Name: "Cycle Length 25th Percentile", Icon: "mdi:chart-bell-curve"},
	{Key: "cycle_length_p50", Name: "Cycle Length Median", Icon: "mdi:chart-bell-curve"},
	{Key: "cycle_length_p75", Name: "Cycle Length 75th Percentile", Icon: "mdi:chart-bell-curve"},
	{Key: "period_length_p25", Name: "Period Length 25th Percentile", Icon: "mdi:chart-bell-curve"},
	{Key: "period_length_p50", Name: "Period Length Median", Icon: "mdi:chart-bell-curve"},
	{Key: "period_length_p75", Name: "Period Length 75th Percentile", Icon: "mdi:chart-bell-curve"},
}
