package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "ruuvari_"

	resultSuccess = "success"
	resultError   = "error"
	resultDropped = "dropped"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	adapterMatches     *prometheus.CounterVec
	conversionFailures *prometheus.CounterVec
	eventsEmitted      *prometheus.CounterVec

	forwardResults *prometheus.CounterVec
	forwardLatency *prometheus.HistogramVec
)

// Init registers collector metrics with the default registry.
func Init() {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total ingest requests by result",
			},
			[]string{"result"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		adapterMatches = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "adapter_matches_total",
				Help: "Payloads accepted by adapter",
			},
			[]string{"adapter"},
		)
		conversionFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "conversion_failures_total",
				Help: "Adapter rejections by adapter and error kind",
			},
			[]string{"adapter", "kind"},
		)
		eventsEmitted = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_emitted_total",
				Help: "Normalized events produced by adapter",
			},
			[]string{"adapter"},
		)

		forwardResults = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "forward_total",
				Help: "Batch forwards by sink and result",
			},
			[]string{"sink", "result"},
		)
		forwardLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "forward_latency_seconds",
				Help:    "Batch forward latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"sink"},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestLatency,
			adapterMatches,
			conversionFailures,
			eventsEmitted,
			forwardResults,
			forwardLatency,
		)
	})
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveConversion records the accepting adapter and how many events it produced.
func ObserveConversion(adapter string, events int) {
	if adapter == "" {
		adapter = "unknown"
	}
	if adapterMatches != nil {
		adapterMatches.WithLabelValues(adapter).Inc()
	}
	if eventsEmitted != nil && events > 0 {
		eventsEmitted.WithLabelValues(adapter).Add(float64(events))
	}
}

// IncConversionFailure increments the rejection counter.
func IncConversionFailure(adapter, kind string) {
	if adapter == "" {
		adapter = "unknown"
	}
	if kind == "" {
		kind = "unknown"
	}
	if conversionFailures != nil {
		conversionFailures.WithLabelValues(adapter, kind).Inc()
	}
}

// ObserveForward records one sink's handling of a batch.
func ObserveForward(sink, result string, duration time.Duration) {
	if sink == "" {
		sink = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if forwardResults != nil {
		forwardResults.WithLabelValues(sink, result).Inc()
	}
	if forwardLatency != nil {
		forwardLatency.WithLabelValues(sink).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	IngestResultSuccess = resultSuccess
	IngestResultDropped = resultDropped

	ResultSuccess = resultSuccess
	ResultError   = resultError
)
