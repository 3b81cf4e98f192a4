package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"menstrual_tracker_daemon/internal/domain/calendar"
	"menstrual_tracker_daemon/internal/domain/cycle"
	"menstrual_tracker_daemon/internal/domain/entity"
	"menstrual_tracker_daemon/internal/domain/history"
	"menstrual_tracker_daemon/internal/domain/settings"
	"menstrual_tracker_daemon/internal/infra/metrics"
)

var ErrUnknownEntity = fmt.Errorf("unknown entity")

// Refresher triggers a recomputation of the published state. Services that
// mutate history or settings depend on this interface rather than on the
// concrete tracker.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// TrackerOptions carries the computation knobs that can change on a config
// reload.
type TrackerOptions struct {
	Cycle                   cycle.Config
	ShowFertilityOnCalendar bool
	// ProjectionCycles is how many future cycles the calendar projects
	// beyond the current one.
	ProjectionCycles int
}

// TrackerService recomputes the cycle snapshot and publishes it as entity
// states and calendar events. It is the single writer of that state; the
// scheduler and the mutating services all funnel through Refresh.
type TrackerService struct {
	historyRepo  history.Repository
	settingsRepo settings.Repository
	recorder     metrics.Recorder
	logger       *logrus.Entry
	now          func() time.Time

	mu          sync.RWMutex
	opts        TrackerOptions
	snap        cycle.Snapshot
	events      []calendar.Event
	states      []entity.State
	refreshedAt time.Time
}

func NewTrackerService(
	historyRepo history.Repository,
	settingsRepo settings.Repository,
	recorder metrics.Recorder,
	logger *logrus.Entry,
	opts TrackerOptions,
) *TrackerService {
	return &TrackerService{
		historyRepo:  historyRepo,
		settingsRepo: settingsRepo,
		recorder:     recorder,
		logger:       logger,
		now:          time.Now,
		opts:         opts,
	}
}

// Refresh recomputes the snapshot from configuration, settings and recorded
// history, then swaps the published state in one step.
func (s *TrackerService) Refresh(ctx context.Context) error {
	started := s.now()

	sett, err := s.settingsRepo.Get(ctx)
	if err != nil {
		s.recorder.ObserveRefresh(time.Since(started), false)
		return fmt.Errorf("failed to load settings: %w", err)
	}
	periods, err := s.historyRepo.ListPeriods(ctx)
	if err != nil {
		s.recorder.ObserveRefresh(time.Since(started), false)
		return fmt.Errorf("failed to load recorded periods: %w", err)
	}
	logs, err := s.historyRepo.ListLogs(ctx)
	if err != nil {
		s.recorder.ObserveRefresh(time.Since(started), false)
		return fmt.Errorf("failed to load daily logs: %w", err)
	}

	s.mu.Lock()
	opts := s.opts
	s.mu.Unlock()

	// The latest recorded period start supersedes the configured anchor.
	cfg := opts.Cycle
	if len(periods) > 0 {
		cfg = cfg.WithAnchor(periods[len(periods)-1].Start)
	}

	snap := cycle.Compute(cfg, s.now(), opts.ProjectionCycles, sett.PregnancyMode)
	snap.CycleStats = cycle.NewStatistics(history.CycleLengthSamples(periods))
	snap.PeriodStats = cycle.NewStatistics(history.PeriodLengthSamples(periods))
	if snap.CycleStats.Count > 0 {
		snap.AvgCycleLength = snap.CycleStats.Mean
	}
	if snap.PeriodStats.Count > 0 {
		snap.AvgPeriodLength = snap.PeriodStats.Mean
	}

	events := calendar.BuildEvents(snap, periods, logs, opts.ShowFertilityOnCalendar)
	refreshedAt := s.now()
	states := entity.BuildStates(snap, events, refreshedAt)

	s.mu.Lock()
	s.snap = snap
	s.events = events
	s.states = states
	s.refreshedAt = refreshedAt
	s.mu.Unlock()

	s.recorder.ObserveRefresh(time.Since(started), true)
	s.recorder.SetCycleState(snap)
	s.logger.WithFields(logrus.Fields{
		"day_of_cycle":   snap.DayOfCycle,
		"menstruating":   snap.Menstruating,
		"pregnancy_mode": snap.PregnancyMode,
		"periods":        len(periods),
		"logs":           len(logs),
		"events":         len(events),
	}).Info("Snapshot refreshed")
	return nil
}

// ApplyOptions swaps the computation knobs after a config reload. The caller
// is expected to Refresh afterwards.
func (s *TrackerService) ApplyOptions(opts TrackerOptions) {
	s.mu.Lock()
	s.opts = opts
	s.mu.Unlock()
	s.logger.WithFields(logrus.Fields{
		"cycle_length":  opts.Cycle.CycleLength,
		"period_length": opts.Cycle.PeriodLength,
	}).Info("Tracker options updated")
}

// SetPregnancyMode persists the toggle and refreshes immediately.
func (s *TrackerService) SetPregnancyMode(ctx context.Context, enabled bool) error {
	if err := s.settingsRepo.SetPregnancyMode(ctx, enabled); err != nil {
		return fmt.Errorf("failed to persist pregnancy mode: %w", err)
	}
	s.logger.WithField("enabled", enabled).Info("Pregnancy mode changed")
	return s.Refresh(ctx)
}

// Snapshot returns the last computed snapshot.
func (s *TrackerService) Snapshot() cycle.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// States returns the full published entity list.
func (s *TrackerService) States() []entity.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.State, len(s.states))
	copy(out, s.states)
	return out
}

// StateByID looks up one published entity.
func (s *TrackerService) StateByID(entityID string) (entity.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.states {
		if st.EntityID == entityID {
			return st, nil
		}
	}
	return entity.State{}, fmt.Errorf("%w: %s", ErrUnknownEntity, entityID)
}

// EventsInRange returns calendar events overlapping [from, to]. Zero bounds
// default to today through the end of the projection horizon.
func (s *TrackerService) EventsInRange(from, to time.Time) []calendar.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if from.IsZero() {
		from = s.snap.Today
	}
	if to.IsZero() {
		horizon := (s.opts.ProjectionCycles + 1) * s.opts.Cycle.CycleLength
		to = s.snap.Today.AddDate(0, 0, horizon)
	}
	return calendar.InRange(s.events, from, to)
}

// UpcomingEvent returns the next calendar event to surface, if any.
func (s *TrackerService) UpcomingEvent() (calendar.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return calendar.Upcoming(s.events, s.snap.Today)
}

// RefreshedAt returns when the snapshot was last recomputed.
func (s *TrackerService) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}
