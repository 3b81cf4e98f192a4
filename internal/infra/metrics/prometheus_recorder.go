package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"menstrual_tracker_daemon/internal/domain/cycle"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	refreshDuration *prom.HistogramVec
	refreshes       *prom.CounterVec
	serviceCalls    *prom.CounterVec
	dayOfCycle      prom.Gauge
	menstruating    prom.Gauge
	pregnancyMode   prom.Gauge
	daysUntilNext   prom.Gauge
}

// NewPrometheusRecorder constructs the tracker metrics and registers them on
// reg. A nil registry gets a private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		refreshDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "menstrual_tracker",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of snapshot refreshes",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		refreshes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "menstrual_tracker",
			Name:      "refreshes_total",
			Help:      "Refresh counts by outcome",
		}, []string{"result"}),
		serviceCalls: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "menstrual_tracker",
			Name:      "service_calls_total",
			Help:      "Service call counts by name and outcome",
		}, []string{"service", "result"}),
		dayOfCycle: prom.NewGauge(prom.GaugeOpts{
			Namespace: "menstrual_tracker",
			Name:      "day_of_cycle",
			Help:      "Current day of the cycle, starting at 1",
		}),
		menstruating: prom.NewGauge(prom.GaugeOpts{
			Namespace: "menstrual_tracker",
			Name:      "currently_menstruating",
			Help:      "1 while the current cycle day falls inside the period",
		}),
		pregnancyMode: prom.NewGauge(prom.GaugeOpts{
			Namespace: "menstrual_tracker",
			Name:      "pregnancy_mode",
			Help:      "1 while pregnancy mode suppresses predictions",
		}),
		daysUntilNext: prom.NewGauge(prom.GaugeOpts{
			Namespace: "menstrual_tracker",
			Name:      "days_until_next_period",
			Help:      "Days until the predicted next period start; -1 without a prediction",
		}),
	}
	reg.MustRegister(pr.refreshDuration, pr.refreshes, pr.serviceCalls,
		pr.dayOfCycle, pr.menstruating, pr.pregnancyMode, pr.daysUntilNext)
	return pr
}

func (p *PrometheusRecorder) ObserveRefresh(d time.Duration, success bool) {
	if p == nil || p.refreshDuration == nil {
		return
	}
	res := resultLabel(success)
	p.refreshDuration.WithLabelValues(res).Observe(d.Seconds())
	p.refreshes.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) SetCycleState(snap cycle.Snapshot) {
	if p == nil || p.dayOfCycle == nil {
		return
	}
	p.dayOfCycle.Set(float64(snap.DayOfCycle))
	p.menstruating.Set(boolGauge(snap.Menstruating))
	p.pregnancyMode.Set(boolGauge(snap.PregnancyMode))
	if snap.NextPeriodStart.IsZero() {
		p.daysUntilNext.Set(-1)
		return
	}
	p.daysUntilNext.Set(float64(cycle.DaysBetween(snap.Today, snap.NextPeriodStart)))
}

func (p *PrometheusRecorder) IncServiceCall(service string, success bool) {
	if p == nil || p.serviceCalls == nil {
		return
	}
	p.serviceCalls.WithLabelValues(service, resultLabel(success)).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
