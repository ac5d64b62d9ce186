package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	launches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "warden",
		Name:      "process_launches_total",
		Help:      "Total number of successful process launches per role.",
	}, []string{"role"})

	launchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "warden",
		Name:      "process_launch_failures_total",
		Help:      "Total number of failed process launches per role.",
	}, []string{"role"})

	stops = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "warden",
		Name:      "process_stops_total",
		Help:      "Total number of termination sequences completed per role.",
	}, []string{"role"})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "warden",
		Name:      "build_info",
		Help:      "Build metadata for the running warden binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(launches, launchFailures, stops, buildInfo)
}

// Registry returns the Prometheus registry containing all warden metrics.
func Registry() *prometheus.Registry {
	return registry
}

// IncrementLaunches records a successful process launch.
func IncrementLaunches(role string) {
	if role == "" {
		return
	}
	launches.WithLabelValues(role).Inc()
}

// IncrementLaunchFailures records a failed process launch.
func IncrementLaunchFailures(role string) {
	if role == "" {
		return
	}
	launchFailures.WithLabelValues(role).Inc()
}

// IncrementStops records a completed termination sequence.
func IncrementStops(role string) {
	if role == "" {
		return
	}
	stops.WithLabelValues(role).Inc()
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
