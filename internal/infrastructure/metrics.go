package infrastructure

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the per-file batch counters.
type Metrics struct {
	Registry *prometheus.Registry
	files    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates metrics registered on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emgpipe",
			Name:      "files_total",
			Help:      "Files processed per stage and outcome.",
		}, []string{"stage", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "emgpipe",
			Name:      "file_duration_seconds",
			Help:      "Time spent on a single file per stage.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"stage"}),
	}
	m.Registry.MustRegister(m.files, m.duration)
	return m
}

// Observe records the outcome of one file.
func (m *Metrics) Observe(stage string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.files.WithLabelValues(stage, status).Inc()
	m.duration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// WriteTextfile writes the registry in the node_exporter textfile format.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
