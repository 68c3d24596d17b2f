package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	InspectedMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspector_messages_total",
			Help: "Total number of deliveries inspected, by payload kind and deciding signal (count)",
		},
		[]string{"kind", "reason"},
	)

	InspectionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inspector_processing_duration_ms",
			Help:    "Time spent classifying and decoding a payload in milliseconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250},
		},
		[]string{"kind"},
	)

	PayloadSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inspector_payload_size_bytes",
			Help:    "Size of inspected payloads in bytes",
			Buckets: prometheus.ExponentialBuckets(16, 4, 10),
		},
		[]string{"kind"},
	)

	BinaryFormatsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspector_binary_formats_total",
			Help: "Total number of binary payloads per detected format (count)",
		},
		[]string{"format"},
	)

	TextLayersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspector_text_decode_total",
			Help: "Total number of text payloads per decode outcome (count)",
		},
		[]string{"outcome"},
	)

	BrokerMessagesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_messages_received_total",
			Help: "Total number of deliveries received from the broker (count)",
		},
		[]string{"service", "broker", "source"},
	)

	BrokerFetchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_fetch_errors_total",
			Help: "Total number of failed broker reads (count)",
		},
		[]string{"service", "broker", "source"},
	)

	BrokerReconnectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_reconnect_attempts_total",
			Help: "Total number of broker connection retries (count)",
		},
		[]string{"service", "broker"},
	)

	HandlerPanicsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_handler_panics_total",
			Help: "Total number of panics recovered while handling a delivery (count)",
		},
		[]string{"service", "source"},
	)

	BrokerReadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "broker_read_duration_ms",
			Help:    "Duration of broker read operations in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
		[]string{"service", "source"},
	)
)

var (
	inspectorOnce sync.Once
	brokerOnce    sync.Once
)

func RegisterInspectorMetrics() {
	inspectorOnce.Do(func() {
		prometheus.MustRegister(InspectedMessagesTotal)
		prometheus.MustRegister(InspectionDuration)
		prometheus.MustRegister(PayloadSizeBytes)
		prometheus.MustRegister(BinaryFormatsTotal)
		prometheus.MustRegister(TextLayersTotal)
	})
}

func RegisterBrokerMetrics() {
	brokerOnce.Do(func() {
		prometheus.MustRegister(BrokerMessagesReceivedTotal)
		prometheus.MustRegister(BrokerFetchErrorsTotal)
		prometheus.MustRegister(BrokerReconnectsTotal)
		prometheus.MustRegister(HandlerPanicsTotal)
		prometheus.MustRegister(BrokerReadDuration)
	})
}

func ObserveInspection(kind, reason string, sizeBytes int, duration time.Duration) {
	InspectedMessagesTotal.WithLabelValues(kind, reason).Inc()
	PayloadSizeBytes.WithLabelValues(kind).Observe(float64(sizeBytes))
	InspectionDuration.WithLabelValues(kind).Observe(float64(duration.Microseconds()) / 1000)
}

func IncBinaryFormat(format string) {
	BinaryFormatsTotal.WithLabelValues(format).Inc()
}

func IncTextOutcome(outcome string) {
	TextLayersTotal.WithLabelValues(outcome).Inc()
}

func IncBrokerMessagesReceived(service, broker, source string) {
	BrokerMessagesReceivedTotal.WithLabelValues(service, broker, source).Inc()
}

func IncBrokerFetchError(service, broker, source string) {
	BrokerFetchErrorsTotal.WithLabelValues(service, broker, source).Inc()
}

func IncBrokerReconnect(service, broker string) {
	BrokerReconnectsTotal.WithLabelValues(service, broker).Inc()
}

func IncHandlerPanic(service, source string) {
	HandlerPanicsTotal.WithLabelValues(service, source).Inc()
}

func ObserveBrokerReadDuration(service, source string, duration time.Duration) {
	BrokerReadDuration.WithLabelValues(service, source).Observe(float64(duration.Milliseconds()))
}
