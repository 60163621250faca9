// Package metrics exposes Prometheus collectors for supervision events.
package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	regOK atomic.Bool

	processStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "respawn",
			Subsystem: "process",
			Name:      "starts_total",
			Help:      "Number of successful process spawns.",
		}, []string{"name"},
	)
	processStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "respawn",
			Subsystem: "process",
			Name:      "exits_total",
			Help:      "Number of observed process exits.",
		}, []string{"name"},
	)
	processRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "respawn",
			Subsystem: "process",
			Name:      "crash_restarts_total",
			Help:      "Number of automatic restarts after an unrequested exit.",
		}, []string{"name"},
	)
	restartExhaustions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "respawn",
			Subsystem: "process",
			Name:      "restart_exhausted_total",
			Help:      "Times a process hit its restart cap and was dropped.",
		}, []string{"name"},
	)
	runningProcesses = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "respawn",
			Subsystem: "process",
			Name:      "running",
			Help:      "Number of records currently in a live state.",
		},
	)
)

// Register registers all collectors with r. Safe to call multiple times;
// calls after the first success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	for _, c := range []prometheus.Collector{
		processStarts, processStops, processRestarts, restartExhaustions, runningProcesses,
	} {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns the /metrics handler for the default registry.
func Handler() http.Handler { return promhttp.Handler() }

func IncStart(name string)     { processStarts.WithLabelValues(name).Inc() }
func IncStop(name string)      { processStops.WithLabelValues(name).Inc() }
func IncRestart(name string)   { processRestarts.WithLabelValues(name).Inc() }
func IncExhausted(name string) { restartExhaustions.WithLabelValues(name).Inc() }
func SetRunning(n int)         { runningProcesses.Set(float64(n)) }
