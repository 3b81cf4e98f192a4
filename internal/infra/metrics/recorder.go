package metrics

import (
	"time"

	"menstrual_tracker_daemon/internal/domain/cycle"
)

// Recorder defines observability hooks for refreshes and service calls.
// Implementations may forward to Prometheus; NoopRecorder keeps metrics
// optional.
type Recorder interface {
	ObserveRefresh(d time.Duration, success bool)
	SetCycleState(snap cycle.Snapshot)
	IncServiceCall(service string, success bool)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveRefresh(time.Duration, bool) {}
func (NoopRecorder) SetCycleState(cycle.Snapshot)       {}
func (NoopRecorder) IncServiceCall(string, bool)        {}
