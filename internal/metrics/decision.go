// Package metrics exposes Prometheus instrumentation for admission decisions.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delaygate_decision_total",
		Help: "Total number of admission decisions by outcome, rule, and protocol",
	}, []string{"outcome", "rule", "protocol"})

	evaluationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delaygate_evaluation_errors_total",
		Help: "Total number of evaluations that failed before reaching a decision",
	}, []string{"stage"})

	grabTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "delaygate_grab_total",
		Help: "Total number of grabs sent to the download client by source and result",
	}, []string{"source", "result"})

	pendingReleases = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "delaygate_pending_releases",
		Help: "Number of releases currently held by a delay profile",
	})
)

// RecordDecision records one evaluated candidate.
func RecordDecision(accepted bool, rule, protocol string) {
	outcome := "held"
	if accepted {
		outcome = "accepted"
	}
	decisionTotal.WithLabelValues(outcome, normalizeRuleLabel(rule), normalizeProtocolLabel(protocol)).Inc()
}

// RecordEvaluationError records an evaluation that could not produce a decision.
func RecordEvaluationError(stage string) {
	evaluationErrorsTotal.WithLabelValues(normalizeStageLabel(stage)).Inc()
}

// RecordGrab records a grab attempt. source is "discovery" or "pending".
func RecordGrab(source string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	if source != "discovery" && source != "pending" {
		source = "unknown"
	}
	grabTotal.WithLabelValues(source, result).Inc()
}

// SetPendingReleases publishes the number of held releases.
func SetPendingReleases(n int) {
	pendingReleases.Set(float64(n))
}

func normalizeRuleLabel(rule string) string {
	switch r := strings.ToLower(strings.TrimSpace(rule)); r {
	case "manual_search", "zero_delay", "revision_upgrade", "best_quality", "cutoff_met",
		"pending_delay_elapsed", "delay_elapsed", "within_delay":
		return r
	default:
		return "unknown"
	}
}

func normalizeProtocolLabel(protocol string) string {
	switch p := strings.ToLower(strings.TrimSpace(protocol)); p {
	case "usenet", "torrent":
		return p
	default:
		return "unknown"
	}
}

func normalizeStageLabel(stage string) string {
	switch s := strings.ToLower(strings.TrimSpace(stage)); s {
	case "series", "episodes", "quality_profile", "delay_profile", "pending":
		return s
	default:
		return "unknown"
	}
}
