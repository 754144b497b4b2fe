package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/dltkit/internal/dlt"
	"github.com/danmuck/dltkit/internal/dlt/stream"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dltkit",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dltkit",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
	decodeBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dltkit",
			Subsystem: "decode",
			Name:      "bytes_total",
			Help:      "Bytes fed into the decoder.",
		},
	)
	decodePackets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dltkit",
			Subsystem: "decode",
			Name:      "packets_total",
			Help:      "Decoded packets that passed the filter.",
		},
		[]string{"mstp", "mtin"},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dltkit",
			Subsystem: "decode",
			Name:      "errors_total",
			Help:      "Decode errors surfaced by the stream.",
		},
		[]string{"code"},
	)
	decodeFiltered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dltkit",
			Subsystem: "decode",
			Name:      "filtered_total",
			Help:      "Decoded packets dropped by the MTIN filter.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, decodeBytes, decodePackets, decodeErrors, decodeFiltered)
	})
}

func RecordHTTPRequest(service, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordChunk counts the n input bytes and the outcome of one formatter ingest.
func RecordChunk(n int, chunk stream.Chunk) {
	RegisterMetrics()
	decodeBytes.Add(float64(n))
	for _, e := range chunk.Entries {
		mstp, mtin := packetLabels(e.Packet)
		decodePackets.WithLabelValues(mstp, mtin).Inc()
	}
	for _, err := range chunk.Errors {
		decodeErrors.WithLabelValues(string(dlt.CodeOf(err))).Inc()
	}
	if chunk.Filtered > 0 {
		decodeFiltered.Add(float64(chunk.Filtered))
	}
}

func packetLabels(p *dlt.Packet) (string, string) {
	if p == nil || p.Extended == nil {
		return "none", "none"
	}
	return p.Extended.MSTP.Short(), p.Extended.MTIN.Short()
}
