// Package metrics holds the Prometheus collectors for generation runs and model calls.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockmeta_runs_total",
		Help: "Generation runs by title strategy and outcome",
	}, []string{"strategy", "status"})

	RowsGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockmeta_rows_generated_total",
		Help: "Generated metadata rows by title strategy",
	}, []string{"strategy"})

	RunDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockmeta_run_duration_seconds",
		Help:    "Duration of a full generation run",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})

	TitleFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockmeta_ai_title_failures_total",
		Help: "Rows whose AI title fell back to an error value",
	})

	LLMRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockmeta_llm_request_duration_seconds",
		Help:    "Duration of text generation requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "model", "status"})

	LLMTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockmeta_llm_tokens_total",
		Help: "Tokens used by text generation requests",
	}, []string{"provider", "model", "type"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockmeta_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockmeta_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stockmeta_http_requests_in_flight",
		Help: "HTTP requests currently being served",
	})
)

// MustRegister registers all collectors.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		RunsTotal,
		RowsGenerated,
		RunDuration,
		TitleFailures,
		LLMRequestDuration,
		LLMTokensTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
	)
}

// ObserveLLMCall records duration, status and token counts of one model call.
func ObserveLLMCall(provider, model string, duration time.Duration, promptTokens, completionTokens int, err error) {
	if model == "" {
		model = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	LLMRequestDuration.WithLabelValues(provider, model, status).Observe(duration.Seconds())
	if promptTokens > 0 {
		LLMTokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		LLMTokensTotal.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
}

// ObserveRun records the outcome of a generation run.
func ObserveRun(strategy string, rows, aiFailures int, duration time.Duration, cancelled bool) {
	status := "completed"
	if cancelled {
		status = "cancelled"
	}
	RunsTotal.WithLabelValues(strategy, status).Inc()
	RowsGenerated.WithLabelValues(strategy).Add(float64(rows))
	RunDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if aiFailures > 0 {
		TitleFailures.Add(float64(aiFailures))
	}
}

// ObserveHTTPRequest records one served request. path is the route pattern,
// not the raw URL, to keep label cardinality bounded.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if path == "" {
		path = "unmatched"
	}
	labels := []string{method, path, strconv.Itoa(status)}
	HTTPRequestsTotal.WithLabelValues(labels...).Inc()
	HTTPRequestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
}
