package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menstrual_tracker_daemon/internal/domain/cycle"
	"menstrual_tracker_daemon/internal/domain/history"
)

func newHistoryForTest(repo *fakeHistoryRepo, refresher *fakeRefresher, now time.Time) *HistoryService {
	svc := NewHistoryService(repo, refresher, newTestLogger())
	svc.now = func() time.Time { return now }
	return svc
}

func TestRecordEventDefaults(t *testing.T) {
	t.Parallel()

	repo := &fakeHistoryRepo{}
	refresher := &fakeRefresher{}
	now := time.Date(2025, time.August, 12, 9, 30, 0, 0, time.UTC)
	svc := newHistoryForTest(repo, refresher, now)

	log, err := svc.RecordEvent(context.Background(), time.Time{}, true, "", nil)
	require.NoError(t, err)

	// Zero day means today, empty flow means medium, nil symptoms become
	// an empty list.
	assert.Equal(t, cycle.Date(2025, time.August, 12), log.Day)
	assert.Equal(t, history.FlowMedium, log.Flow)
	assert.NotNil(t, log.Symptoms)
	assert.Empty(t, log.Symptoms)
	assert.Equal(t, now, log.CreatedAt)
	assert.NotEqual(t, [16]byte{}, [16]byte(log.ID))

	stored, err := repo.ListLogs(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 1, refresher.calls)
}

func TestRecordEventUnknownFlow(t *testing.T) {
	t.Parallel()

	repo := &fakeHistoryRepo{}
	refresher := &fakeRefresher{}
	svc := newHistoryForTest(repo, refresher, cycle.Date(2025, time.August, 12))

	_, err := svc.RecordEvent(context.Background(), time.Time{}, true, "torrential", []string{"cramps"})
	assert.ErrorIs(t, err, history.ErrUnknownFlow)
	assert.Empty(t, repo.logs)
	assert.Zero(t, refresher.calls)
}

func TestRecordEventKeepsSymptoms(t *testing.T) {
	t.Parallel()

	repo := &fakeHistoryRepo{}
	svc := newHistoryForTest(repo, &fakeRefresher{}, cycle.Date(2025, time.August, 12))

	day := time.Date(2025, time.August, 10, 22, 15, 0, 0, time.UTC)
	log, err := svc.RecordEvent(context.Background(), day, false, "spotting", []string{"headache", "cramps"})
	require.NoError(t, err)

	assert.Equal(t, cycle.Date(2025, time.August, 10), log.Day)
	assert.False(t, log.Menstruating)
	assert.Equal(t, history.FlowSpotting, log.Flow)
	assert.Equal(t, []string{"headache", "cramps"}, log.Symptoms)
}

func TestDeleteEventsModes(t *testing.T) {
	t.Parallel()

	day := cycle.Date(2025, time.August, 10)
	otherDay := cycle.Date(2025, time.August, 11)
	seed := func() *fakeHistoryRepo {
		return &fakeHistoryRepo{logs: []*history.DailyLog{
			{Day: day, Menstruating: true, Flow: history.FlowLight, Symptoms: []string{}, CreatedAt: time.Date(2025, time.August, 10, 8, 0, 0, 0, time.UTC)},
			{Day: day, Menstruating: true, Flow: history.FlowHeavy, Symptoms: []string{"cramps"}, CreatedAt: time.Date(2025, time.August, 10, 20, 0, 0, 0, time.UTC)},
			{Day: otherDay, Menstruating: false, Flow: history.FlowNone, Symptoms: []string{}, CreatedAt: time.Date(2025, time.August, 11, 8, 0, 0, 0, time.UTC)},
		}}
	}

	t.Run("last removes the most recent entry", func(t *testing.T) {
		t.Parallel()
		repo := seed()
		refresher := &fakeRefresher{}
		svc := newHistoryForTest(repo, refresher, otherDay)

		deleted, err := svc.DeleteEvents(context.Background(), day, "", history.LogFilter{})
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)
		require.Len(t, repo.logs, 2)
		assert.Equal(t, history.FlowLight, repo.logs[0].Flow)
		assert.Equal(t, 1, refresher.calls)
	})

	t.Run("any removes every entry on the day", func(t *testing.T) {
		t.Parallel()
		repo := seed()
		svc := newHistoryForTest(repo, &fakeRefresher{}, otherDay)

		deleted, err := svc.DeleteEvents(context.Background(), day, "any", history.LogFilter{})
		require.NoError(t, err)
		assert.Equal(t, 2, deleted)
		require.Len(t, repo.logs, 1)
		assert.Equal(t, otherDay, repo.logs[0].Day)
	})

	t.Run("exact removes only matching entries", func(t *testing.T) {
		t.Parallel()
		repo := seed()
		svc := newHistoryForTest(repo, &fakeRefresher{}, otherDay)

		heavy := history.FlowHeavy
		deleted, err := svc.DeleteEvents(context.Background(), day, "exact", history.LogFilter{Flow: &heavy})
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)
		require.Len(t, repo.logs, 2)
	})

	t.Run("unknown mode is rejected", func(t *testing.T) {
		t.Parallel()
		repo := seed()
		refresher := &fakeRefresher{}
		svc := newHistoryForTest(repo, refresher, otherDay)

		deleted, err := svc.DeleteEvents(context.Background(), day, "first", history.LogFilter{})
		assert.ErrorIs(t, err, history.ErrUnknownMode)
		assert.Zero(t, deleted)
		assert.Len(t, repo.logs, 3)
		assert.Zero(t, refresher.calls)
	})

	t.Run("no matches is not an error", func(t *testing.T) {
		t.Parallel()
		repo := seed()
		svc := newHistoryForTest(repo, &fakeRefresher{}, otherDay)

		deleted, err := svc.DeleteEvents(context.Background(), cycle.Date(2025, time.July, 1), "any", history.LogFilter{})
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})
}

func TestRecordPeriodValidation(t *testing.T) {
	t.Parallel()

	repo := &fakeHistoryRepo{}
	svc := newHistoryForTest(repo, &fakeRefresher{}, cycle.Date(2025, time.August, 12))

	_, err := svc.RecordPeriod(context.Background(), time.Time{}, time.Time{})
	assert.ErrorIs(t, err, ErrMissingStart)

	_, err = svc.RecordPeriod(context.Background(), cycle.Date(2025, time.August, 10), cycle.Date(2025, time.August, 8))
	assert.ErrorIs(t, err, ErrEndBeforeStart)
	assert.Empty(t, repo.periods)
}

func TestRecordPeriodUpsert(t *testing.T) {
	t.Parallel()

	repo := &fakeHistoryRepo{}
	refresher := &fakeRefresher{}
	svc := newHistoryForTest(repo, refresher, cycle.Date(2025, time.August, 12))

	// First call opens the period, the second closes it.
	p, err := svc.RecordPeriod(context.Background(), cycle.Date(2025, time.August, 10), time.Time{})
	require.NoError(t, err)
	assert.False(t, p.End.Valid)

	_, err = svc.RecordPeriod(context.Background(), cycle.Date(2025, time.August, 10), cycle.Date(2025, time.August, 14))
	require.NoError(t, err)

	require.Len(t, repo.periods, 1)
	require.True(t, repo.periods[0].End.Valid)
	assert.Equal(t, cycle.Date(2025, time.August, 14), repo.periods[0].End.Time)
	assert.Equal(t, 2, refresher.calls)
}

func TestCreateCalendarEvent(t *testing.T) {
	t.Parallel()

	t.Run("menstruation summaries become recorded periods", func(t *testing.T) {
		t.Parallel()
		repo := &fakeHistoryRepo{}
		svc := newHistoryForTest(repo, &fakeRefresher{}, cycle.Date(2025, time.August, 12))

		for i, summary := range []string{"Menstruation", "  period  ", "PERIOD"} {
			stored, err := svc.CreateCalendarEvent(context.Background(), summary, cycle.Date(2025, time.August, 1+i), time.Time{})
			require.NoError(t, err)
			assert.True(t, stored)
		}
		assert.Len(t, repo.periods, 3)
	})

	t.Run("unrelated summaries are ignored", func(t *testing.T) {
		t.Parallel()
		repo := &fakeHistoryRepo{}
		refresher := &fakeRefresher{}
		svc := newHistoryForTest(repo, refresher, cycle.Date(2025, time.August, 12))

		stored, err := svc.CreateCalendarEvent(context.Background(), "Doctor appointment", cycle.Date(2025, time.August, 1), time.Time{})
		require.NoError(t, err)
		assert.False(t, stored)
		assert.Empty(t, repo.periods)
		assert.Zero(t, refresher.calls)
	})

	t.Run("missing start is rejected", func(t *testing.T) {
		t.Parallel()
		svc := newHistoryForTest(&fakeHistoryRepo{}, &fakeRefresher{}, cycle.Date(2025, time.August, 12))

		_, err := svc.CreateCalendarEvent(context.Background(), "Menstruation", time.Time{}, time.Time{})
		assert.ErrorIs(t, err, ErrMissingStart)
	})
}

func TestMutationSucceedsWhenRefreshFails(t *testing.T) {
	t.Parallel()

	repo := &fakeHistoryRepo{}
	refresher := &fakeRefresher{err: context.DeadlineExceeded}
	svc := newHistoryForTest(repo, refresher, cycle.Date(2025, time.August, 12))

	_, err := svc.RecordEvent(context.Background(), time.Time{}, true, "light", nil)
	require.NoError(t, err)
	assert.Len(t, repo.logs, 1)
	assert.Equal(t, 1, refresher.calls)
}
