package scheduler

import (
	"context"
	"time"

	"menstrual_tracker_daemon/internal/app" // For the Refresher interface

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// RefreshScheduler triggers the daily cycle recomputation. The cron spec is
// evaluated in the server's local time so the day-of-cycle rolls over with
// the user's wall clock.
type RefreshScheduler struct {
	cronEngine *cron.Cron
	refresher  app.Refresher
	logger     *logrus.Entry
	cronSpec   string
}

func NewRefreshScheduler(refresher app.Refresher, logger *logrus.Entry, cronSpec string) *RefreshScheduler {
	return &RefreshScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		refresher:  refresher,
		logger:     logger,
		cronSpec:   cronSpec,
	}
}

func (s *RefreshScheduler) Start() {
	s.logger.Info("Starting refresh scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for daily cycle refresh.")
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute) // Context for the job
		defer cancel()
		if err := s.refresher.Refresh(ctx); err != nil {
			s.logger.WithError(err).Error("Error during scheduled cycle refresh")
		}
	})
	if err != nil {
		s.logger.WithError(err).Fatalf("Could not add daily refresh cron job with spec %q", s.cronSpec)
	}

	s.cronEngine.Start()
	s.logger.WithField("spec", s.cronSpec).Info("Refresh scheduler started.")
}

func (s *RefreshScheduler) Stop() {
	s.logger.Info("Stopping refresh scheduler...")
	ctx := s.cronEngine.Stop() // Stops scheduling new runs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Refresh scheduler gracefully stopped.")
}
