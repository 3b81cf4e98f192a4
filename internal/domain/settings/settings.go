package settings

// Settings are the runtime-adjustable toggles that survive restarts.
// Pregnancy mode pauses every predictive output while keeping the day
// counter and history intact.
type Settings struct {
	PregnancyMode bool
}
