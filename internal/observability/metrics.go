package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	requestsTotal         *prometheus.CounterVec
	latencySeconds        *prometheus.HistogramVec
	errorsTotal           *prometheus.CounterVec
	uploadsTotal          *prometheus.CounterVec
	uploadsRejectedTotal  *prometheus.CounterVec
	exportEntriesStreamed prometheus.Counter
	exportFailuresTotal   prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors for the grading API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sga_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sga_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sga_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sga_document_uploads_total",
			Help: "Total number of submission documents stored.",
		}, []string{"kind"})

		uploadsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sga_document_uploads_rejected_total",
			Help: "Total number of document uploads rejected before storage.",
		}, []string{"reason"})

		exportEntriesStreamed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sga_export_entries_streamed_total",
			Help: "Total number of documents streamed into zip exports.",
		})

		exportFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sga_export_failures_total",
			Help: "Total number of zip exports aborted mid-stream.",
		})

		prometheus.MustRegister(
			requestsTotal,
			latencySeconds,
			errorsTotal,
			uploadsTotal,
			uploadsRejectedTotal,
			exportEntriesStreamed,
			exportFailuresTotal,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// Uploads exposes the counter for stored documents.
func Uploads() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsTotal
}

// UploadsRejected exposes the counter for uploads rejected before storage.
func UploadsRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsRejectedTotal
}

// ExportEntriesStreamed exposes the counter for streamed export entries.
func ExportEntriesStreamed() prometheus.Counter {
	RegisterMetrics()
	return exportEntriesStreamed
}

// ExportFailures exposes the counter for aborted exports.
func ExportFailures() prometheus.Counter {
	RegisterMetrics()
	return exportFailuresTotal
}
