package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "transcribe_gateway_active_sessions",
		Help: "Number of active transcription sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcribe_gateway_sessions_total",
		Help: "Total number of transcription sessions handled",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transcribe_gateway_session_duration_seconds",
		Help:    "Duration of transcription sessions in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
	})

	// Audio ingest metrics
	audioBytesIn = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcribe_gateway_audio_bytes_total",
		Help: "Total PCM bytes received from clients",
	})

	windowsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcribe_gateway_windows_total",
		Help: "Total audio windows emitted for transcription",
	}, []string{"kind"}) // kind: "short" or "long"

	windowsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcribe_gateway_windows_skipped_total",
		Help: "Windows skipped by the silence gate without engine invocation",
	})

	// Inference metrics
	inferenceRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcribe_gateway_inference_requests_total",
		Help: "Total inference engine invocations",
	}, []string{"backend", "status"})

	inferenceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transcribe_gateway_inference_latency_seconds",
		Help:    "Inference engine latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	}, []string{"backend"})

	languageFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcribe_gateway_language_fallbacks_total",
		Help: "Times the engine rejected a language hint and auto-detect was retried",
	})

	// Delivery metrics
	resultsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcribe_gateway_results_total",
		Help: "Transcription results delivered to clients",
	}, []string{"kind"}) // kind: "partial" or "retranscribe"

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcribe_gateway_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "transcribe_gateway_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})
)

// SessionMetrics tracks metrics for a single streaming session
type SessionMetrics struct {
	startTime time.Time
}

// NewSessionMetrics creates a metrics tracker for one session and records its
// start.
func NewSessionMetrics() *SessionMetrics {
	activeSessions.Inc()
	totalSessions.Inc()
	return &SessionMetrics{startTime: time.Now()}
}

// RecordSessionEnd records the end of a session
func (m *SessionMetrics) RecordSessionEnd() {
	activeSessions.Dec()
	sessionDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordAudioBytes records PCM bytes received from the client
func (m *SessionMetrics) RecordAudioBytes(n int) {
	audioBytesIn.Add(float64(n))
}

// RecordWindow records an emitted window of the given kind
func (m *SessionMetrics) RecordWindow(long bool) {
	windowsEmitted.WithLabelValues(windowKind(long)).Inc()
}

// RecordSilenceSkip records a window suppressed by the silence gate
func (m *SessionMetrics) RecordSilenceSkip() {
	windowsSkipped.Inc()
}

// RecordResult records a result delivered to the client
func (m *SessionMetrics) RecordResult(retranscribe bool) {
	if retranscribe {
		resultsSent.WithLabelValues("retranscribe").Inc()
	} else {
		resultsSent.WithLabelValues("partial").Inc()
	}
}

// RecordError records an error
func (m *SessionMetrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

func windowKind(long bool) string {
	if long {
		return "long"
	}
	return "short"
}

// ObserveInference records one engine invocation's latency and outcome.
func ObserveInference(backend string, elapsed time.Duration, success bool) {
	inferenceLatency.WithLabelValues(backend).Observe(elapsed.Seconds())
	status := "success"
	if !success {
		status = "error"
	}
	inferenceRequests.WithLabelValues(backend, status).Inc()
}

// RecordLanguageFallback counts a hint rejection retried with auto-detect.
func RecordLanguageFallback() {
	languageFallbacks.Inc()
}

// UpdateBreakerState updates the circuit breaker state gauge.
func UpdateBreakerState(service string, state int) {
	breakerState.WithLabelValues(service).Set(float64(state))
}
