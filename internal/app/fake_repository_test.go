package app

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"menstrual_tracker_daemon/internal/domain/history"
	"menstrual_tracker_daemon/internal/domain/settings"
)

func newTestLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// fakeHistoryRepo is an in-memory history.Repository with the same
// semantics as the database implementation.
type fakeHistoryRepo struct {
	periods []*history.Period
	logs    []*history.DailyLog
	err     error
}

func (f *fakeHistoryRepo) sortAll() {
	sort.Slice(f.periods, func(i, j int) bool { return f.periods[i].Start.Before(f.periods[j].Start) })
	sort.Slice(f.logs, func(i, j int) bool {
		if !f.logs[i].Day.Equal(f.logs[j].Day) {
			return f.logs[i].Day.Before(f.logs[j].Day)
		}
		return f.logs[i].CreatedAt.Before(f.logs[j].CreatedAt)
	})
}

func (f *fakeHistoryRepo) UpsertPeriod(_ context.Context, period *history.Period) error {
	if f.err != nil {
		return f.err
	}
	for _, p := range f.periods {
		if p.Start.Equal(period.Start) {
			if period.End.Valid {
				p.End = period.End
			}
			return nil
		}
	}
	cp := *period
	f.periods = append(f.periods, &cp)
	f.sortAll()
	return nil
}

func (f *fakeHistoryRepo) ListPeriods(context.Context) ([]*history.Period, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sortAll()
	out := make([]*history.Period, len(f.periods))
	copy(out, f.periods)
	return out, nil
}

func (f *fakeHistoryRepo) CreateLog(_ context.Context, log *history.DailyLog) error {
	if f.err != nil {
		return f.err
	}
	cp := *log
	f.logs = append(f.logs, &cp)
	f.sortAll()
	return nil
}

func (f *fakeHistoryRepo) ListLogs(context.Context) ([]*history.DailyLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sortAll()
	out := make([]*history.DailyLog, len(f.logs))
	copy(out, f.logs)
	return out, nil
}

func (f *fakeHistoryRepo) ListLogsByDay(_ context.Context, day time.Time) ([]*history.DailyLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sortAll()
	var out []*history.DailyLog
	for _, l := range f.logs {
		if l.Day.Equal(day) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) DeleteLogs(_ context.Context, day time.Time, mode history.DeleteMode, filter history.LogFilter) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	var candidates []*history.DailyLog
	for _, l := range f.logs {
		if l.Day.Equal(day) {
			candidates = append(candidates, l)
		}
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	remove := make(map[*history.DailyLog]bool)
	switch mode {
	case history.DeleteModeAny:
		for _, l := range candidates {
			remove[l] = true
		}
	case history.DeleteModeLast:
		latest := candidates[0]
		for _, l := range candidates[1:] {
			if l.CreatedAt.After(latest.CreatedAt) {
				latest = l
			}
		}
		remove[latest] = true
	case history.DeleteModeExact:
		for _, l := range candidates {
			if l.Matches(filter) {
				remove[l] = true
			}
		}
	}

	kept := f.logs[:0]
	for _, l := range f.logs {
		if !remove[l] {
			kept = append(kept, l)
		}
	}
	deleted := len(f.logs) - len(kept)
	f.logs = kept
	return deleted, nil
}

func (f *fakeHistoryRepo) ImportHistory(ctx context.Context, periods []*history.Period, logs []*history.DailyLog, mode history.ImportMode) error {
	if f.err != nil {
		return f.err
	}
	if mode == history.ImportModeReplace {
		f.periods = nil
		f.logs = nil
		for _, p := range periods {
			if err := f.UpsertPeriod(ctx, p); err != nil {
				return err
			}
		}
		for _, l := range logs {
			cl := *l
			f.logs = append(f.logs, &cl)
		}
		f.sortAll()
		return nil
	}

	for _, p := range periods {
		if err := f.UpsertPeriod(ctx, p); err != nil {
			return err
		}
	}
	existing := make(map[string]*history.DailyLog, len(f.logs))
	for _, l := range f.logs {
		existing[l.DedupeKey()] = l
	}
	for _, l := range logs {
		if prev, ok := existing[l.DedupeKey()]; ok {
			if l.CreatedAt.Before(prev.CreatedAt) {
				prev.CreatedAt = l.CreatedAt
			}
			continue
		}
		cl := *l
		f.logs = append(f.logs, &cl)
		existing[cl.DedupeKey()] = &cl
	}
	f.sortAll()
	return nil
}

// fakeSettingsRepo is an in-memory settings.Repository.
type fakeSettingsRepo struct {
	pregnancyMode bool
	err           error
}

func (f *fakeSettingsRepo) Get(context.Context) (*settings.Settings, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &settings.Settings{PregnancyMode: f.pregnancyMode}, nil
}

func (f *fakeSettingsRepo) SetPregnancyMode(_ context.Context, enabled bool) error {
	if f.err != nil {
		return f.err
	}
	f.pregnancyMode = enabled
	return nil
}

// fakeRefresher counts refresh requests.
type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(context.Context) error {
	f.calls++
	return f.err
}
