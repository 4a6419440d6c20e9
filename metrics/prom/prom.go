// Package prom adapts the cache/queue/worker Metrics interfaces to
// Prometheus counters, gauges and a histogram.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Adapter implements lru.Metrics, queue.Metrics and worker.Metrics.
// Safe for concurrent use; all Prometheus metric types are
// goroutine-safe.
type Adapter struct {
	hits       prometheus.Counter
	misses     prometheus.Counter
	evicts     prometheus.Counter
	cacheSize  prometheus.Gauge
	queueDepth prometheus.Gauge

	requests *prometheus.CounterVec
	duration prometheus.Histogram
}

// New constructs a Prometheus metrics adapter.
//   - reg: registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns:  Prometheus namespace applied to every metric
func New(reg prometheus.Registerer, ns string) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "cache", Name: "hits_total", Help: "Cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "cache", Name: "misses_total", Help: "Cache misses",
		}),
		evicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "cache", Name: "evictions_total", Help: "Cache evictions",
		}),
		cacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: "cache", Name: "size_entries", Help: "Number of resident cache entries",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: "queue", Name: "depth", Help: "Number of connections waiting in the handoff queue",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "worker", Name: "requests_total", Help: "Requests handled by workers, by outcome",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: "worker", Name: "request_duration_seconds", Help: "End-to-end request handling time",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.evicts, a.cacheSize, a.queueDepth, a.requests, a.duration)
	return a
}

// ---- lru.Metrics ----

func (a *Adapter) Hit()  { a.hits.Inc() }
func (a *Adapter) Miss() { a.misses.Inc() }
func (a *Adapter) Evict() {
	a.evicts.Inc()
}
func (a *Adapter) Size(entries int) { a.cacheSize.Set(float64(entries)) }

// ---- queue.Metrics ----

func (a *Adapter) Depth(n int) { a.queueDepth.Set(float64(n)) }

// ---- worker.Metrics ----

// Outcome labels recorded by ObserveRequest.
const (
	OutcomeOK      = "ok"
	OutcomeTimeout = "timeout"
	OutcomeTooLong = "too_long"
	OutcomeInvalid = "invalid"
)

// ObserveRequest records the outcome and duration of one worker
// request/response cycle.
func (a *Adapter) ObserveRequest(outcome string, d time.Duration) {
	a.requests.WithLabelValues(outcome).Inc()
	a.duration.Observe(d.Seconds())
}
