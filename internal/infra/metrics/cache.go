package metrics

import "github.com/prometheus/client_golang/prometheus"

// Cache lookup results.
const (
	CacheHit     = "hit"
	CacheMiss    = "miss"
	CacheError   = "error"
	CacheCorrupt = "corrupt"
)

func init() { register(cacheLookups) }

var cacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Read-through cache lookups by cache and result.",
	},
	[]string{"cache", "result"},
)

func ObserveCacheLookup(cache, result string) {
	cacheLookups.WithLabelValues(norm(cache), result).Inc()
}
