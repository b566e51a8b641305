package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-dealer-assistant/internal/assistant"
	"github.com/tbourn/go-dealer-assistant/internal/llm"
)

var (
	// assistantQueries counts composed replies by intent and source.
	assistantQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_queries_total",
			Help: "Total number of assistant queries answered.",
		},
		[]string{"intent", "source"},
	)

	// assistantFallbacks counts replies that degraded, by reason:
	// not_found, storage, remote, breaker_open, internal.
	assistantFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_fallbacks_total",
			Help: "Total number of assistant replies that fell back to a degraded answer.",
		},
		[]string{"reason"},
	)

	// assistantFetchErrors counts failed record fetches by kind.
	assistantFetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_fetch_errors_total",
			Help: "Total number of record fetches that failed.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(assistantQueries, assistantFallbacks, assistantFetchErrors)
}

// observeOutcome records one composed reply.
func observeOutcome(out assistant.Outcome) {
	assistantQueries.WithLabelValues(string(out.Intent), string(out.Source)).Inc()
	for _, k := range out.Failed {
		assistantFetchErrors.WithLabelValues(string(k)).Inc()
	}
	for _, reason := range fallbackReasons(out.Err) {
		assistantFallbacks.WithLabelValues(reason).Inc()
	}
}

// fallbackReasons maps the error kinds joined in err to metric labels.
func fallbackReasons(err error) []string {
	if err == nil {
		return nil
	}
	var out []string
	if errors.Is(err, assistant.ErrNotFound) {
		out = append(out, "not_found")
	}
	if errors.Is(err, assistant.ErrStorageUnavailable) {
		out = append(out, "storage")
	}
	if errors.Is(err, assistant.ErrRemoteUnavailable) {
		if llm.IsBreakerOpen(err) {
			out = append(out, "breaker_open")
		} else {
			out = append(out, "remote")
		}
	}
	if errors.Is(err, assistant.ErrInternal) {
		out = append(out, "internal")
	}
	return out
}
