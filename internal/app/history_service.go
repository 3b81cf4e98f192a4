package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"menstrual_tracker_daemon/internal/domain/cycle"
	"menstrual_tracker_daemon/internal/domain/history"
)

// Custom application-level errors for history mutations
var ErrMissingStart = fmt.Errorf("a start date is required")
var ErrEndBeforeStart = fmt.Errorf("end date must be on or after the start date")

// HistoryService handles user-recorded history: daily logs, recorded
// periods and calendar-created events. Every successful mutation triggers a
// refresh so the published entities reflect it immediately.
type HistoryService struct {
	historyRepo history.Repository
	refresher   Refresher
	logger      *logrus.Entry
	now         func() time.Time
}

func NewHistoryService(historyRepo history.Repository, refresher Refresher, logger *logrus.Entry) *HistoryService {
	return &HistoryService{
		historyRepo: historyRepo,
		refresher:   refresher,
		logger:      logger,
		now:         time.Now,
	}
}

// RecordEvent appends a daily log. A zero day means today.
func (s *HistoryService) RecordEvent(ctx context.Context, day time.Time, menstruating bool, flow string, symptoms []string) (*history.DailyLog, error) {
	level, err := history.ParseFlow(flow)
	if err != nil {
		return nil, err
	}
	if day.IsZero() {
		day = s.now()
	}
	if symptoms == nil {
		symptoms = []string{}
	}

	log := &history.DailyLog{
		ID:           uuid.New(),
		Day:          cycle.DateOf(day),
		Menstruating: menstruating,
		Flow:         level,
		Symptoms:     symptoms,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.historyRepo.CreateLog(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to save daily log: %w", err)
	}
	s.refreshAfter(ctx, "record_event")
	return log, nil
}

// DeleteEvents removes daily logs on the given day per the mode and returns
// how many were removed. Zero deletions is not an error.
func (s *HistoryService) DeleteEvents(ctx context.Context, day time.Time, mode string, filter history.LogFilter) (int, error) {
	m, err := history.ParseDeleteMode(mode)
	if err != nil {
		return 0, err
	}

	deleted, err := s.historyRepo.DeleteLogs(ctx, cycle.DateOf(day), m, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete daily logs: %w", err)
	}
	if deleted == 0 {
		s.logger.WithField("day", cycle.FormatDate(cycle.DateOf(day))).Debug("No matching daily logs to delete")
	}
	s.refreshAfter(ctx, "delete_event")
	return deleted, nil
}

// RecordPeriod adds a recorded period or updates the end of an existing one
// with the same start. A zero end leaves the period open.
func (s *HistoryService) RecordPeriod(ctx context.Context, start, end time.Time) (*history.Period, error) {
	if start.IsZero() {
		return nil, ErrMissingStart
	}
	p := &history.Period{Start: cycle.DateOf(start)}
	if !end.IsZero() {
		endDay := cycle.DateOf(end)
		if endDay.Before(p.Start) {
			return nil, ErrEndBeforeStart
		}
		p.End = sql.NullTime{Time: endDay, Valid: true}
	}

	if err := s.historyRepo.UpsertPeriod(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to record period: %w", err)
	}
	s.refreshAfter(ctx, "record_period")
	return p, nil
}

// CreateCalendarEvent handles a user-created calendar event. Only events
// whose summary is "Menstruation" or "Period" (case-insensitive) are stored,
// as recorded periods; anything else is ignored and reported as such.
func (s *HistoryService) CreateCalendarEvent(ctx context.Context, summary string, start, end time.Time) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(summary)) {
	case "menstruation", "period":
	default:
		s.logger.WithField("summary", summary).Debug("Ignoring unrelated calendar event")
		return false, nil
	}
	if start.IsZero() {
		return false, ErrMissingStart
	}
	if _, err := s.RecordPeriod(ctx, start, end); err != nil {
		return false, err
	}
	return true, nil
}

// refreshAfter keeps mutations successful even when the follow-up refresh
// fails; the next scheduled run will catch up.
func (s *HistoryService) refreshAfter(ctx context.Context, operation string) {
	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.WithError(err).WithField("operation", operation).Warn("Refresh after mutation failed")
	}
}
