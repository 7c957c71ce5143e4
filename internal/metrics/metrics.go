package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bors_auth"

// Team roster fetch outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the counters for authorization decisions and team roster
// fetches. A nil *Metrics is valid and records nothing.
type Metrics struct {
	decisions     *prometheus.CounterVec
	teamFetches   *prometheus.CounterVec
	teamExhausted *prometheus.CounterVec
}

// New creates the counters and registers them on reg. A nil reg leaves them
// unregistered, which tests rely on.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Authorization decisions by permission level, deciding rule and result.",
		}, []string{"level", "rule", "allowed"}),
		teamFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "team_fetch_attempts_total",
			Help:      "Team permission fetch attempts by outcome.",
		}, []string{"level", "outcome"}),
		teamExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "team_fetch_exhausted_total",
			Help:      "Team permission lookups that ran out of attempts and fell back to an empty roster.",
		}, []string{"level"}),
	}

	if reg != nil {
		reg.MustRegister(m.decisions, m.teamFetches, m.teamExhausted)
	}

	return m
}

// ObserveDecision records one authorization verdict
func (m *Metrics) ObserveDecision(level, rule string, allowed bool) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(level, rule, strconv.FormatBool(allowed)).Inc()
}

// ObserveTeamFetch records one attempt against the team API
func (m *Metrics) ObserveTeamFetch(level, outcome string) {
	if m == nil {
		return
	}
	m.teamFetches.WithLabelValues(level, outcome).Inc()
}

// ObserveTeamExhausted records a lookup that gave up
func (m *Metrics) ObserveTeamExhausted(level string) {
	if m == nil {
		return
	}
	m.teamExhausted.WithLabelValues(level).Inc()
}
