package cycle

import "time"

// Projection is one projected cycle: its period start and the fertility
// window inside it. The window bounds are inclusive dates.
type Projection struct {
	PeriodStart          time.Time
	FertilityWindowStart time.Time
	FertilityWindowEnd   time.Time
}

// Snapshot is the full derived state for one day. It is recomputed from
// scratch on every refresh; nothing in it is ever mutated incrementally.
type Snapshot struct {
	Config Config
	Today  time.Time

	CurrentPeriodStart   time.Time
	DayOfCycle           int
	Menstruating         bool
	NextPeriodStart      time.Time
	FertilityWindowStart time.Time
	FertilityWindowEnd   time.Time

	// Projections covers the current cycle plus the configured number of
	// upcoming cycles, oldest first. Empty in pregnancy mode.
	Projections []Projection

	PregnancyMode bool

	CycleStats  Statistics
	PeriodStats Statistics
	// Averages fall back to the configured lengths when no samples exist.
	AvgCycleLength  float64
	AvgPeriodLength float64
}

// Compute derives the snapshot for today. horizon is the number of future
// cycles to project beyond the current one. In pregnancy mode all predictive
// fields (next period, fertility window, projections) are left empty while
// the day counter keeps running.
func Compute(cfg Config, today time.Time, horizon int, pregnancyMode bool) Snapshot {
	today = DateOf(today)
	anchor := DateOf(cfg.LastPeriodStart)

	// Shift the anchor to the most recent cycle start on or before today.
	// floorMod keeps this correct when the anchor lies in the future.
	offset := floorMod(DaysBetween(anchor, today), cfg.CycleLength)
	currentStart := addDays(today, -offset)
	dayOfCycle := offset + 1

	snap := Snapshot{
		Config:             cfg,
		Today:              today,
		CurrentPeriodStart: currentStart,
		DayOfCycle:         dayOfCycle,
		Menstruating:       dayOfCycle <= cfg.PeriodLength,
		PregnancyMode:      pregnancyMode,
		AvgCycleLength:     float64(cfg.CycleLength),
		AvgPeriodLength:    float64(cfg.PeriodLength),
	}
	if pregnancyMode {
		return snap
	}

	// Smallest date >= today congruent to the anchor modulo the cycle
	// length: today itself on a cycle-start day, otherwise the start of the
	// following cycle.
	if dayOfCycle == 1 {
		snap.NextPeriodStart = currentStart
	} else {
		snap.NextPeriodStart = addDays(currentStart, cfg.CycleLength)
	}

	snap.FertilityWindowStart, snap.FertilityWindowEnd = fertilityWindow(currentStart, cfg.CycleLength)

	if horizon < 0 {
		horizon = 0
	}
	snap.Projections = make([]Projection, 0, horizon+1)
	for k := 0; k <= horizon; k++ {
		start := addDays(currentStart, k*cfg.CycleLength)
		ws, we := fertilityWindow(start, cfg.CycleLength)
		snap.Projections = append(snap.Projections, Projection{
			PeriodStart:          start,
			FertilityWindowStart: ws,
			FertilityWindowEnd:   we,
		})
	}
	return snap
}

// fertilityWindow estimates the fertile range of the cycle starting at
// periodStart: ovulation is assumed 14 days before the cycle ends, the
// window spans five days before ovulation through one day after.
func fertilityWindow(periodStart time.Time, cycleLength int) (start, end time.Time) {
	ovulationDay := cycleLength - 14
	return addDays(periodStart, ovulationDay-5), addDays(periodStart, ovulationDay+1)
}

func addDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// floorMod is the mathematical modulo: the result always lies in [0, m).
func floorMod(n, m int) int {
	r := n % m
	if r < 0 {
		r += m
	}
	return r
}
