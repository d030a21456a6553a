// Package metrics holds the Prometheus collectors for answering questions.
//
// Collectors register with the default registry on import. The MCP server
// exposes them on /metrics in HTTP mode; CLI runs simply discard them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/custodia-labs/sercha-chat/internal/core/domain"
)

const namespace = "sercha_chat"

// Answer outcomes used as the status label.
const (
	StatusOK        = "ok"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

var (
	// answersTotal counts answers by model and outcome.
	answersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "answer",
		Name:      "total",
		Help:      "Answers produced, by model and outcome",
	}, []string{"model", "status"})

	// answerDuration measures question-to-done latency.
	answerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "answer",
		Name:      "duration_seconds",
		Help:      "Time from question to final event",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"model", "status"})

	// firstTokenLatency measures time until the first text reaches the user.
	firstTokenLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "answer",
		Name:      "first_token_seconds",
		Help:      "Time from question to first emitted text",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"model"})

	// contextDocuments tracks how many documents each answer was given.
	contextDocuments = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "answer",
		Name:      "context_documents",
		Help:      "Documents supplied to the model per answer",
		Buckets:   prometheus.LinearBuckets(0, 2, 11),
	})

	// citationsTotal counts citation markers by how they were handled.
	// Labels: outcome (resolved, invalid, suppressed, display_fallback, in_code)
	citationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "citations",
		Name:      "total",
		Help:      "Citation markers seen in model output, by outcome",
	}, []string{"outcome"})

	// stopSequenceHits counts answers truncated by the stop sequence.
	stopSequenceHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "citations",
		Name:      "stop_sequence_hits_total",
		Help:      "Answers truncated by the configured stop sequence",
	})

	// searchDuration measures retrieval latency by effective mode.
	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "duration_seconds",
		Help:      "Retrieval latency by search mode",
		Buckets:   prometheus.DefBuckets,
	}, []string{"mode"})

	// rateLimitWait measures time spent waiting for the LLM rate limiter.
	rateLimitWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "rate_limit_wait_seconds",
		Help:      "Time spent waiting for the LLM request limiter",
		Buckets:   []float64{0, 0.1, 0.5, 1, 2, 5, 10, 30},
	})
)

// RecordAnswer records the outcome and latency of one answer.
func RecordAnswer(model, status string, d time.Duration) {
	answersTotal.WithLabelValues(model, status).Inc()
	answerDuration.WithLabelValues(model, status).Observe(d.Seconds())
}

// RecordFirstToken records time to first emitted text.
func RecordFirstToken(model string, d time.Duration) {
	firstTokenLatency.WithLabelValues(model).Observe(d.Seconds())
}

// RecordContextDocuments records the size of an answer's context.
func RecordContextDocuments(n int) {
	contextDocuments.Observe(float64(n))
}

// RecordCitations adds one answer's citation counters.
func RecordCitations(stats domain.CitationStats) {
	citationsTotal.WithLabelValues("resolved").Add(float64(stats.Resolved))
	citationsTotal.WithLabelValues("invalid").Add(float64(stats.InvalidNumbers))
	citationsTotal.WithLabelValues("suppressed").Add(float64(stats.SuppressedRepeats))
	citationsTotal.WithLabelValues("display_fallback").Add(float64(stats.DisplayFallbacks))
	citationsTotal.WithLabelValues("in_code").Add(float64(stats.CodeBlockSkipped))
	if stats.StopSequenceHit {
		stopSequenceHits.Inc()
	}
}

// RecordSearch records retrieval latency for an effective search mode.
func RecordSearch(mode domain.SearchMode, d time.Duration) {
	searchDuration.WithLabelValues(mode.String()).Observe(d.Seconds())
}

// RecordRateLimitWait records time blocked on the LLM limiter.
func RecordRateLimitWait(d time.Duration) {
	rateLimitWait.Observe(d.Seconds())
}
