package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DirectionDecode = "decode"
	DirectionEncode = "encode"

	ResultOK        = "ok"
	ResultMalformed = "malformed"
)

var (
	registerOnce sync.Once

	codecPackets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dhcpwire",
			Subsystem: "codec",
			Name:      "packets_total",
			Help:      "Packets parsed or serialised, by outcome.",
		},
		[]string{"direction", "result"},
	)
	codecOptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dhcpwire",
			Subsystem: "codec",
			Name:      "options_total",
			Help:      "Typed option decodes, by option and outcome.",
		},
		[]string{"option", "result"},
	)
	schemaRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dhcpwire",
			Subsystem: "schema",
			Name:      "rejections_total",
			Help:      "Parsed packets rejected by message validation.",
		},
		[]string{"reason"},
	)
	handleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dhcpwire",
			Subsystem: "endpoint",
			Name:      "handle_duration_seconds",
			Help:      "Time from datagram receipt to reply or drop.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"message_type", "replied"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dhcpwire",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dhcpwire",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			codecPackets,
			codecOptions,
			schemaRejections,
			handleDuration,
			httpRequests,
			httpDuration,
		)
	})
}

// RecordCodecPacket counts one parse or serialise. result is "ok" or a
// parse error variant name.
func RecordCodecPacket(direction, result string) {
	RegisterMetrics()
	codecPackets.WithLabelValues(direction, result).Inc()
}

func RecordOptionDecode(option string, ok bool) {
	RegisterMetrics()
	result := ResultOK
	if !ok {
		result = ResultMalformed
	}
	codecOptions.WithLabelValues(option, result).Inc()
}

func RecordSchemaRejection(reason string) {
	RegisterMetrics()
	schemaRejections.WithLabelValues(reason).Inc()
}

func ObserveHandle(messageType string, replied bool, duration time.Duration) {
	RegisterMetrics()
	handleDuration.WithLabelValues(messageType, strconv.FormatBool(replied)).Observe(duration.Seconds())
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
