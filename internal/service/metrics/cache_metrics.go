package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditscore",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by cache and result (hit, miss, error)",
		},
		[]string{"cache", "result"},
	)

	SummaryLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "creditscore",
			Subsystem: "dashboard",
			Name:      "summary_seconds",
			Help:      "Latency of dashboard aggregations",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)
)

// Register adds the collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(CacheLookups, SummaryLatency)
	})
}

// ObserveLookup counts one cache lookup.
func ObserveLookup(cache string, hit bool, err error) {
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case hit:
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}
