package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// all collects every collector declared in this package; each file adds its own from init.
var (
	all          []prometheus.Collector
	registerOnce sync.Once
)

func register(cs ...prometheus.Collector) { all = append(all, cs...) }

// RegisterWith adds the package collectors to reg. Tests use it with a fresh registry.
func RegisterWith(reg prometheus.Registerer) error {
	for _, c := range all {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister publishes the collectors on the default registry served at /metrics.
// Calling it more than once is harmless.
func MustRegister() {
	registerOnce.Do(func() {
		if err := RegisterWith(prometheus.DefaultRegisterer); err != nil {
			panic(err)
		}
	})
}
