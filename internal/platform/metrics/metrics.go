package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, route pattern and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Solves counts solver invocations by backend and outcome.
	Solves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimizer_solves_total", Help: "Solver invocations by backend and outcome."},
		[]string{"backend", "outcome"},
	)
	// SolveDuration tracks wall time spent inside the solver.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "optimizer_solve_duration_seconds", Help: "Solver wall time in seconds.", Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60}},
		[]string{"backend"},
	)
	// SolvesInFlight is the number of solves currently holding a worker slot.
	SolvesInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "optimizer_solves_in_flight", Help: "Solves currently running."},
	)
	// ResultCache counts result cache lookups by outcome (hit, miss, error).
	ResultCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimizer_result_cache_total", Help: "Result cache lookups by outcome."},
		[]string{"outcome"},
	)
	// GeocodeRequests counts geocoding lookups by source (cache, remote) and outcome.
	GeocodeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "geocode_requests_total", Help: "Geocoding lookups by source and outcome."},
		[]string{"source", "outcome"},
	)
)

var regOnce sync.Once

// Register adds every collector to Registry. Safe to call more than once.
func Register() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Solves)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(SolvesInFlight)
		Registry.MustRegister(ResultCache)
		Registry.MustRegister(GeocodeRequests)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
