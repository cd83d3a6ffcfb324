package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgeprobe",
			Subsystem: "provider",
			Name:      "operations_total",
			Help:      "Provider operations dispatched.",
		},
		[]string{"host", "operation", "strategy", "success"},
	)
	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edgeprobe",
			Subsystem: "provider",
			Name:      "operation_duration_seconds",
			Help:      "Provider operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"host", "operation", "strategy", "success"},
	)
	detections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgeprobe",
			Subsystem: "platform",
			Name:      "detections_total",
			Help:      "Platform detections by resulting kind.",
		},
		[]string{"host", "kind"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(operations, operationDuration, detections)
	})
}

func RecordOperation(host, operation, strategy string, duration time.Duration, success bool) {
	RegisterMetrics()
	successLabel := strconv.FormatBool(success)
	operations.WithLabelValues(host, operation, strategy, successLabel).Inc()
	operationDuration.WithLabelValues(host, operation, strategy, successLabel).Observe(duration.Seconds())
}

func RecordDetection(host, kind string) {
	RegisterMetrics()
	detections.WithLabelValues(host, kind).Inc()
}

// WriteTextfile dumps the default registry in the node_exporter textfile
// format.
func WriteTextfile(path string) error {
	RegisterMetrics()
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
