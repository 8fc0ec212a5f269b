package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(poolConns, poolMaxConns, poolEmptyAcquires) }

var (
	poolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_connections",
			Help: "Postgres pool connections by state.",
		},
		[]string{"state"},
	)
	poolMaxConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "db_pool_max_connections",
		Help: "Configured pool size.",
	})
	poolEmptyAcquires = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "db_pool_empty_acquires",
		Help: "Acquires that had to wait for a free connection since start. Growth means the pool is too small for the tick concurrency.",
	})
)

// PoolSnapshot is one reading of the connection pool.
type PoolSnapshot struct {
	Total, Idle, InUse, Max int32
	EmptyAcquires           int64
}

func ObservePool(s PoolSnapshot) {
	poolConns.WithLabelValues("total").Set(float64(s.Total))
	poolConns.WithLabelValues("idle").Set(float64(s.Idle))
	poolConns.WithLabelValues("in_use").Set(float64(s.InUse))
	poolMaxConns.Set(float64(s.Max))
	poolEmptyAcquires.Set(float64(s.EmptyAcquires))
}
