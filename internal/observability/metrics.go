package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	gradesCommittedTotal *prometheus.CounterVec

	certificatesRenderedTotal    *prometheus.CounterVec
	certificateRenderSeconds     prometheus.Histogram
	certificateAssetDegradations *prometheus.CounterVec

	feedSubscribersActive prometheus.Gauge
	feedEventsTotal       *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		gradesCommittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grades_committed_total",
			Help: "Number of rubric grades committed, by certificate eligibility.",
		}, []string{"eligible"})

		certificatesRenderedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certificates_rendered_total",
			Help: "Number of certificate render attempts, by outcome.",
		}, []string{"outcome"})

		certificateRenderSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "certificate_render_seconds",
			Help:    "Time spent rendering a certificate including asset fetches.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		})

		certificateAssetDegradations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "certificate_asset_degradations_total",
			Help: "Certificate assets replaced by placeholder text.",
		}, []string{"asset"})

		feedSubscribersActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "submission_feed_subscribers",
			Help: "Currently connected submission feed subscribers.",
		})

		feedEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submission_feed_events_total",
			Help: "Submission events delivered to the local broker, by type.",
		}, []string{"type"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			gradesCommittedTotal,
			certificatesRenderedTotal,
			certificateRenderSeconds,
			certificateAssetDegradations,
			feedSubscribersActive,
			feedEventsTotal,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// GradesCommitted exposes the committed grade counter.
func GradesCommitted() *prometheus.CounterVec {
	RegisterMetrics()
	return gradesCommittedTotal
}

// CertificatesRendered exposes the render outcome counter.
func CertificatesRendered() *prometheus.CounterVec {
	RegisterMetrics()
	return certificatesRenderedTotal
}

// CertificateRenderDuration exposes the render duration histogram.
func CertificateRenderDuration() prometheus.Histogram {
	RegisterMetrics()
	return certificateRenderSeconds
}

// CertificateAssetDegradations exposes the placeholder substitution counter.
func CertificateAssetDegradations() *prometheus.CounterVec {
	RegisterMetrics()
	return certificateAssetDegradations
}

// FeedSubscribers exposes the active subscriber gauge.
func FeedSubscribers() prometheus.Gauge {
	RegisterMetrics()
	return feedSubscribersActive
}

// FeedEvents exposes the feed event counter.
func FeedEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return feedEventsTotal
}
