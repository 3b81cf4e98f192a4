package history

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menstrual_tracker_daemon/internal/domain/cycle"
)

func day(d int) time.Time {
	return cycle.Date(2025, time.August, d)
}

func menstruatingLog(d int, createdOffset time.Duration) *DailyLog {
	return &DailyLog{
		Day:          day(d),
		Menstruating: true,
		Flow:         FlowMedium,
		CreatedAt:    day(d).Add(12*time.Hour + createdOffset),
	}
}

func TestMenstruatingRuns(t *testing.T) {
	t.Parallel()

	t.Run("no logs", func(t *testing.T) {
		assert.Nil(t, MenstruatingRuns(nil))
	})

	t.Run("non-menstruating logs are ignored", func(t *testing.T) {
		logs := []*DailyLog{{Day: day(1), Menstruating: false, Flow: FlowNone}}
		assert.Nil(t, MenstruatingRuns(logs))
	})

	t.Run("consecutive days form one run", func(t *testing.T) {
		logs := []*DailyLog{menstruatingLog(1, 0), menstruatingLog(2, 0), menstruatingLog(3, 0)}
		runs := MenstruatingRuns(logs)
		require.Len(t, runs, 1)
		assert.Equal(t, Run{Start: day(1), End: day(3)}, runs[0])
	})

	t.Run("gaps split runs", func(t *testing.T) {
		logs := []*DailyLog{
			menstruatingLog(1, 0),
			menstruatingLog(2, 0),
			menstruatingLog(5, 0),
			menstruatingLog(6, 0),
			menstruatingLog(9, 0),
		}
		runs := MenstruatingRuns(logs)
		require.Len(t, runs, 3)
		assert.Equal(t, Run{Start: day(1), End: day(2)}, runs[0])
		assert.Equal(t, Run{Start: day(5), End: day(6)}, runs[1])
		assert.Equal(t, Run{Start: day(9), End: day(9)}, runs[2])
	})

	t.Run("duplicate days collapse and order does not matter", func(t *testing.T) {
		logs := []*DailyLog{
			menstruatingLog(3, 0),
			menstruatingLog(1, 0),
			menstruatingLog(2, time.Minute),
			menstruatingLog(2, 0),
		}
		runs := MenstruatingRuns(logs)
		require.Len(t, runs, 1)
		assert.Equal(t, Run{Start: day(1), End: day(3)}, runs[0])
	})
}

func TestCycleLengthSamples(t *testing.T) {
	t.Parallel()

	t.Run("needs two periods", func(t *testing.T) {
		assert.Nil(t, CycleLengthSamples(nil))
		assert.Nil(t, CycleLengthSamples([]*Period{{Start: day(1)}}))
	})

	t.Run("gaps between successive starts", func(t *testing.T) {
		periods := []*Period{
			{Start: cycle.Date(2025, time.June, 1)},
			{Start: cycle.Date(2025, time.June, 29)},
			{Start: cycle.Date(2025, time.July, 30)},
		}
		assert.Equal(t, []int{28, 31}, CycleLengthSamples(periods))
	})

	t.Run("input order and content are preserved", func(t *testing.T) {
		periods := []*Period{
			{Start: cycle.Date(2025, time.July, 30)},
			{Start: cycle.Date(2025, time.June, 1)},
		}
		assert.Equal(t, []int{59}, CycleLengthSamples(periods))
		assert.Equal(t, cycle.Date(2025, time.July, 30), periods[0].Start)
	})
}

func TestPeriodLengthSamples(t *testing.T) {
	t.Parallel()

	completed := func(start, end int) *Period {
		return &Period{Start: day(start), End: sql.NullTime{Time: day(end), Valid: true}}
	}

	t.Run("open periods contribute nothing", func(t *testing.T) {
		assert.Nil(t, PeriodLengthSamples([]*Period{{Start: day(1)}}))
	})

	t.Run("inclusive day counts", func(t *testing.T) {
		periods := []*Period{completed(1, 5), completed(10, 10), {Start: day(20)}}
		assert.Equal(t, []int{5, 1}, PeriodLengthSamples(periods))
	})
}

func TestPeriodEndExclusive(t *testing.T) {
	t.Parallel()

	withEnd := &Period{Start: day(1), End: sql.NullTime{Time: day(5), Valid: true}}
	assert.Equal(t, day(6), withEnd.EndExclusive(5))

	open := &Period{Start: day(10)}
	assert.Equal(t, day(15), open.EndExclusive(5))

	days, ok := withEnd.LengthDays()
	require.True(t, ok)
	assert.Equal(t, 5, days)
	_, ok = open.LengthDays()
	assert.False(t, ok)
}

func TestDailyLogMatches(t *testing.T) {
	t.Parallel()

	log := &DailyLog{
		Day:          day(4),
		Menstruating: true,
		Flow:         FlowHeavy,
		Symptoms:     []string{"cramps", "headache"},
	}
	yes, no := true, false
	heavy, light := FlowHeavy, FlowLight

	testCases := []struct {
		name   string
		filter LogFilter
		want   bool
	}{
		{name: "empty filter matches everything", filter: LogFilter{}, want: true},
		{name: "menstruating matches", filter: LogFilter{Menstruating: &yes}, want: true},
		{name: "menstruating mismatch", filter: LogFilter{Menstruating: &no}, want: false},
		{name: "flow matches", filter: LogFilter{Flow: &heavy}, want: true},
		{name: "flow mismatch", filter: LogFilter{Flow: &light}, want: false},
		{
			name:   "symptoms compare as a set",
			filter: LogFilter{Symptoms: []string{"headache", "cramps"}},
			want:   true,
		},
		{
			name:   "symptom subset does not match",
			filter: LogFilter{Symptoms: []string{"cramps"}},
			want:   false,
		},
		{
			name:   "empty symptom list only matches symptomless logs",
			filter: LogFilter{Symptoms: []string{}},
			want:   false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, log.Matches(tc.filter))
		})
	}
}

func TestDailyLogDedupeKey(t *testing.T) {
	t.Parallel()

	a := &DailyLog{Day: day(4), Menstruating: true, Flow: FlowHeavy, Symptoms: []string{"cramps", "headache"}}
	b := &DailyLog{Day: day(4), Menstruating: true, Flow: FlowHeavy, Symptoms: []string{"cramps", "headache"}}
	assert.Equal(t, a.DedupeKey(), b.DedupeKey())

	// Unlike filter matching, the dedupe key is symptom-order sensitive.
	c := &DailyLog{Day: day(4), Menstruating: true, Flow: FlowHeavy, Symptoms: []string{"headache", "cramps"}}
	assert.NotEqual(t, a.DedupeKey(), c.DedupeKey())

	d := &DailyLog{Day: day(4), Menstruating: false, Flow: FlowHeavy, Symptoms: []string{"cramps", "headache"}}
	assert.NotEqual(t, a.DedupeKey(), d.DedupeKey())
}

func TestParseFlow(t *testing.T) {
	t.Parallel()

	for _, f := range FlowLevels() {
		got, err := ParseFlow(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := ParseFlow("gushing")
	assert.ErrorIs(t, err, ErrUnknownFlow)

	got, err := ParseFlow("")
	require.NoError(t, err)
	assert.Equal(t, DefaultFlow, got)
}

func TestParseModes(t *testing.T) {
	t.Parallel()

	im, err := ParseImportMode("")
	require.NoError(t, err)
	assert.Equal(t, ImportModeMerge, im)
	im, err = ParseImportMode("replace")
	require.NoError(t, err)
	assert.Equal(t, ImportModeReplace, im)
	_, err = ParseImportMode("append")
	assert.ErrorIs(t, err, ErrUnknownMode)

	dm, err := ParseDeleteMode("")
	require.NoError(t, err)
	assert.Equal(t, DeleteModeLast, dm)
	dm, err = ParseDeleteMode("exact")
	require.NoError(t, err)
	assert.Equal(t, DeleteModeExact, dm)
	_, err = ParseDeleteMode("first")
	assert.ErrorIs(t, err, ErrUnknownMode)
}
