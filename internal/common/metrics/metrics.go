// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_chat_requests_total",
			Help: "Total chat requests by router decision",
		},
		[]string{"decision"},
	)

	LookupOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_lookup_outcomes_total",
			Help: "Per-plan benefit lookup outcomes",
		},
		[]string{"status"},
	)

	FallbackInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_fallback_invocations_total",
			Help: "Fallback delegate invocations by trigger",
		},
		[]string{"trigger", "result"},
	)

	SummarizerFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_summarizer_failures_total",
			Help: "Summarizer delegate failures degraded to a null summary",
		},
	)

	LedgerWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_ledger_writes_total",
			Help: "Session ledger appends by message role",
		},
		[]string{"role"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_request_duration_seconds",
			Help: "Duration of chat request processing in seconds",
		},
		[]string{"decision"},
	)
)
