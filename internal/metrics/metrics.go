// Package metrics declares the adapter's Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Signed fills by outcome; code is the apperr code, "ok" on success.
	FillsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anthic_fills_total",
			Help: "Fill signing requests by transport and outcome code.",
		},
		[]string{"transport", "code"},
	)

	// Duration of each pipeline stage.
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anthic_pipeline_stage_duration_seconds",
			Help:    "Duration of fill pipeline stages in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms → ~4s
		},
		[]string{"stage"},
	)

	AnthicRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anthic_api_requests_total",
			Help: "Anthic trade API requests by endpoint and HTTP status (0 = no response).",
		},
		[]string{"endpoint", "status"},
	)

	AnthicRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anthic_api_request_duration_seconds",
			Help:    "Duration of Anthic trade API requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"endpoint"},
	)

	NATSMessageCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_total",
			Help: "Total number of NATS messages processed.",
		},
		[]string{"subject", "result"}, // ok | error
	)

	NATSMessageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nats_message_latency_seconds",
			Help:    "Time taken to publish NATS messages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"subject"},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapter_errors_total",
			Help: "Count of adapter-level errors by component.",
		},
		[]string{"component", "reason"},
	)
)

// ObserveDuration records time since start on a histogram vector.
func ObserveDuration(h *prometheus.HistogramVec, start time.Time, labels ...string) {
	h.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
}

func ObserveStage(stage string, start time.Time) {
	ObserveDuration(PipelineDuration, start, stage)
}

func IncFill(transport, code string) {
	FillsTotal.WithLabelValues(transport, code).Inc()
}

// ObserveAnthicRequest has the shape of httpclient.Observer.
func ObserveAnthicRequest(endpoint string, status int, elapsed time.Duration) {
	AnthicRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	AnthicRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func IncNATSMessage(subject, result string) {
	NATSMessageCount.WithLabelValues(subject, result).Inc()
}

func IncError(component, reason string) {
	ErrorsTotal.WithLabelValues(component, reason).Inc()
}
