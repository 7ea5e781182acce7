// Package metrics exposes Prometheus counters for the walk tracker.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	walksRecordedCounter    prometheus.Counter
	alertsEmittedCounter    prometheus.Counter
	deliveryFailuresCounter prometheus.Counter
	digestsSentCounter      prometheus.Counter
	sweepDurationMetric     prometheus.Histogram
)

// Init registers metrics on the default Prometheus registry exactly once.
func Init() {
	initOnce.Do(func() {
		walksRecordedCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "walks_recorded_total",
			Help: "Total number of walks logged across all chats.",
		})

		alertsEmittedCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alerts_emitted_total",
			Help: "Total number of overdue-walk reminders delivered.",
		})

		deliveryFailuresCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "delivery_failures_total",
			Help: "Total number of outbound messages that failed to send.",
		})

		digestsSentCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "digests_sent_total",
			Help: "Total number of daily digests delivered.",
		})

		sweepDurationMetric = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Duration of overdue sweep ticks in seconds.",
			Buckets: prometheus.DefBuckets,
		})

		prometheus.MustRegister(
			walksRecordedCounter,
			alertsEmittedCounter,
			deliveryFailuresCounter,
			digestsSentCounter,
			sweepDurationMetric,
		)
	})
}

func IncWalkRecorded() {
	Init()
	walksRecordedCounter.Inc()
}

func IncAlertEmitted() {
	Init()
	alertsEmittedCounter.Inc()
}

func IncDeliveryFailure() {
	Init()
	deliveryFailuresCounter.Inc()
}

func IncDigestSent() {
	Init()
	digestsSentCounter.Inc()
}

func ObserveSweepDuration(d time.Duration) {
	Init()
	sweepDurationMetric.Observe(d.Seconds())
}
