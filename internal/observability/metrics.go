package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gridctl",
			Subsystem: "client",
			Name:      "commands_total",
			Help:      "Commands sent to the grid server.",
		},
		[]string{"op", "outcome"},
	)
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gridctl",
			Subsystem: "client",
			Name:      "command_duration_seconds",
			Help:      "Round-trip duration of one command/reply pair.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op", "outcome"},
	)
	transferBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gridctl",
			Subsystem: "client",
			Name:      "transfer_bytes",
			Help:      "Payload size of bulk transfers from the server.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 12),
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(commands, commandDuration, transferBytes)
	})
}

// RecordCommand counts one command/reply round trip. Transport and
// server failures both count as outcome "error".
func RecordCommand(op string, duration time.Duration, err error) {
	RegisterMetrics()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	commands.WithLabelValues(op, outcome).Inc()
	commandDuration.WithLabelValues(op, outcome).Observe(duration.Seconds())
}

// RecordTransfer tracks the payload size of one bulk transfer.
func RecordTransfer(bytes int) {
	RegisterMetrics()
	transferBytes.Observe(float64(bytes))
}
