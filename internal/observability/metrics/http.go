package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics carries the HTTP surface metrics plus the retrieval
// pipeline counters, all on a private registry.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	retrievalTotal      *prometheus.CounterVec
	retrievalDuration   *prometheus.HistogramVec
	retrievalCandidates *prometheus.HistogramVec
	fallbackTotal       *prometheus.CounterVec
	noContextTotal      *prometheus.CounterVec
	answerModeTotal     *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copilot",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "copilot",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "copilot",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	retrievalTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copilot",
			Subsystem: "retrieval",
			Name:      "requests_total",
			Help:      "Total retrievals by intent and confidence bucket.",
		},
		[]string{"service", "intent", "confidence"},
	)
	retrievalDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "copilot",
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "Retrieval pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "intent"},
	)
	retrievalCandidates := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "copilot",
			Subsystem: "retrieval",
			Name:      "selected_sources",
			Help:      "Distribution of selected sources per retrieval.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "intent"},
	)
	fallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copilot",
			Subsystem: "retrieval",
			Name:      "fallback_total",
			Help:      "Total retrievals that triggered fallback expansion.",
		},
		[]string{"service", "intent"},
	)
	noContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copilot",
			Subsystem: "retrieval",
			Name:      "no_context_total",
			Help:      "Total retrievals returning no sources.",
		},
		[]string{"service", "intent"},
	)
	answerModeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copilot",
			Subsystem: "answer",
			Name:      "mode_total",
			Help:      "Total answers by production mode.",
		},
		[]string{"service", "mode"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		retrievalTotal,
		retrievalDuration,
		retrievalCandidates,
		fallbackTotal,
		noContextTotal,
		answerModeTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		retrievalTotal:      retrievalTotal,
		retrievalDuration:   retrievalDuration,
		retrievalCandidates: retrievalCandidates,
		fallbackTotal:       fallbackTotal,
		noContextTotal:      noContextTotal,
		answerModeTotal:     answerModeTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// RecordRetrieval records one finished pipeline run.
func (m *HTTPServerMetrics) RecordRetrieval(service, intent, confidence string, sourceCount int, fallback, noContext bool, duration time.Duration) {
	m.retrievalTotal.WithLabelValues(service, intent, confidence).Inc()
	m.retrievalDuration.WithLabelValues(service, intent).Observe(duration.Seconds())
	m.retrievalCandidates.WithLabelValues(service, intent).Observe(float64(sourceCount))
	if fallback {
		m.fallbackTotal.WithLabelValues(service, intent).Inc()
	}
	if noContext {
		m.noContextTotal.WithLabelValues(service, intent).Inc()
	}
}

func (m *HTTPServerMetrics) RecordAnswerMode(service, mode string) {
	if mode == "" {
		mode = "unknown"
	}
	m.answerModeTotal.WithLabelValues(service, mode).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
