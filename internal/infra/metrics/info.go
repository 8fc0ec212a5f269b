package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(appInfo, appStarted) }

var (
	appInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Always 1; labels carry the running build.",
		},
		[]string{"version", "commit", "go_version"},
	)

	appStarted = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "app_start_time_seconds",
		Help: "Unix time the process started.",
	})
)

// SetBuildInfo publishes the build labels and the process start time.
func SetBuildInfo(version, commit string, started time.Time) {
	if version == "" {
		version = "dev"
	}
	appInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
	appStarted.Set(float64(started.Unix()))
}
