package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"menstrual_tracker_daemon/internal/domain/cycle"
)

func TestPrometheusRecorderObserveRefresh(t *testing.T) {
	t.Parallel()

	rec := NewPrometheusRecorder(prometheus.NewRegistry())
	rec.ObserveRefresh(150*time.Millisecond, true)
	rec.ObserveRefresh(10*time.Millisecond, true)
	rec.ObserveRefresh(5*time.Millisecond, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.refreshes.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.refreshes.WithLabelValues("failed")))
	assert.NotZero(t, testutil.CollectAndCount(rec.refreshDuration))
}

func TestPrometheusRecorderSetCycleState(t *testing.T) {
	t.Parallel()

	rec := NewPrometheusRecorder(prometheus.NewRegistry())
	today := cycle.Date(2025, time.August, 10)

	rec.SetCycleState(cycle.Snapshot{
		Today:           today,
		DayOfCycle:      10,
		Menstruating:    false,
		NextPeriodStart: cycle.Date(2025, time.August, 29),
	})
	assert.Equal(t, 10.0, testutil.ToFloat64(rec.dayOfCycle))
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.menstruating))
	assert.Equal(t, 19.0, testutil.ToFloat64(rec.daysUntilNext))

	// Pregnancy mode has no prediction to count down to.
	rec.SetCycleState(cycle.Snapshot{
		Today:         today,
		DayOfCycle:    10,
		PregnancyMode: true,
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.pregnancyMode))
	assert.Equal(t, -1.0, testutil.ToFloat64(rec.daysUntilNext))
}

func TestPrometheusRecorderIncServiceCall(t *testing.T) {
	t.Parallel()

	rec := NewPrometheusRecorder(prometheus.NewRegistry())
	rec.IncServiceCall("record_event", true)
	rec.IncServiceCall("record_event", true)
	rec.IncServiceCall("record_event", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.serviceCalls.WithLabelValues("record_event", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.serviceCalls.WithLabelValues("record_event", "failed")))
}

func TestNilRecorderIsSafe(t *testing.T) {
	t.Parallel()

	var rec *PrometheusRecorder
	rec.ObserveRefresh(time.Second, true)
	rec.SetCycleState(cycle.Snapshot{})
	rec.IncServiceCall("record_event", true)

	NoopRecorder{}.ObserveRefresh(time.Second, true)
	NoopRecorder{}.SetCycleState(cycle.Snapshot{})
	NoopRecorder{}.IncServiceCall("record_event", false)
}
