package snapshot

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for snapshot loading.
type Metrics struct {
	hits     *prometheus.CounterVec
	misses   prometheus.Counter
	fetches  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the snapshot collectors. Collectors that are already
// registered (for example by a second Loader in tests) are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skuboard_snapshot_cache_hits_total",
			Help: "Snapshot reads served from a cache tier.",
		}, []string{"tier"}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skuboard_snapshot_cache_miss_total",
			Help: "Snapshot reads that had to go upstream.",
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skuboard_snapshot_fetch_total",
			Help: "Upstream snapshot fetches by outcome.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skuboard_snapshot_fetch_duration_seconds",
			Help:    "Duration of upstream snapshot fetches.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.hits = register(reg, m.hits)
	m.misses = register(reg, m.misses)
	m.fetches = register(reg, m.fetches)
	m.duration = register(reg, m.duration)
	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func (m *Metrics) hit(tier string) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(tier).Inc()
}

func (m *Metrics) miss() {
	if m == nil {
		return
	}
	m.misses.Inc()
}

func (m *Metrics) observeFetch(start time.Time, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.fetches.WithLabelValues(status).Inc()
	m.duration.Observe(time.Since(start).Seconds())
}
