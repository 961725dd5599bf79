// Package monitoring exposes Prometheus metrics for the letter workflow.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "surat_izin"

// Metrics holds the collectors updated by the HTTP layer and the letter service.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	OCRRequests      *prometheus.CounterVec
	OCRDuration      prometheus.Histogram
	LettersSaved     *prometheus.CounterVec
	DuplicateScores  prometheus.Histogram
	ValidationErrors prometheus.Counter
}

// NewMetrics creates the collectors on a dedicated registry, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		OCRRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ocr_requests_total",
			Help:      "Letter transcriptions by outcome.",
		}, []string{"outcome"}),
		OCRDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ocr_duration_seconds",
			Help:      "Time spent transcribing a letter.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}),
		LettersSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "letters_saved_total",
			Help:      "Saved leave records by category and duplicate flag.",
		}, []string{"category", "duplicate"}),
		DuplicateScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "duplicate_score",
			Help:      "Duplicate score computed for each saved letter.",
			Buckets:   []float64{0, 20, 30, 50, 70, 80, 100},
		}),
		ValidationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "save_validation_errors_total",
			Help:      "Save requests rejected by validation.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.OCRRequests,
		m.OCRDuration,
		m.LettersSaved,
		m.DuplicateScores,
		m.ValidationErrors,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// The Observe methods are no-ops on a nil *Metrics.

// ObserveHTTP records one handled HTTP request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveOCR records one transcription attempt.
func (m *Metrics) ObserveOCR(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.OCRRequests.WithLabelValues(outcome).Inc()
	m.OCRDuration.Observe(elapsed.Seconds())
}

// ObserveSave records one persisted leave record.
func (m *Metrics) ObserveSave(category string, duplicate bool, score float64) {
	if m == nil {
		return
	}
	m.LettersSaved.WithLabelValues(category, strconv.FormatBool(duplicate)).Inc()
	m.DuplicateScores.Observe(score)
}

// ObserveValidationFailure records a rejected save.
func (m *Metrics) ObserveValidationFailure() {
	if m == nil {
		return
	}
	m.ValidationErrors.Inc()
}
