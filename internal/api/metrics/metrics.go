// Package metrics defines and registers all custom Prometheus metrics for the
// identity API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts account registrations.
// Label:
//   - result: "success", "conflict" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_registrations_total",
		Help:      "Total number of account registrations, by result.",
	},
	[]string{"result"},
)

// TokenVerificationsTotal counts token verifications.
// Labels:
//   - kind: "access" or "refresh"
//   - result: "ok", "expired", "malformed", "signature_mismatch", "not_yet_valid", "revoked", "unknown_subject", "error"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of token verifications, by token kind and result.",
	},
	[]string{"kind", "result"},
)

// ── Authorization metrics ─────────────────────────────────────────────────────

// GuardDecisionsTotal counts guard decisions.
// Labels:
//   - guard: "roles", "permissions", "roles_permissions" or "none"
//   - result: "allow" or "deny"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of authorization guard decisions.",
	},
	[]string{"guard", "result"},
)

// GuardDecisionDuration measures how long a guard takes, including store lookups.
var GuardDecisionDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "guard_decision_duration_seconds",
		Help:      "Duration of authorization guard evaluation.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Employer registration metrics ─────────────────────────────────────────────

// EmployerRegistrationDecisionsTotal counts decisions on employer registrations.
// Label:
//   - status: "APPROVED" or "REJECTED"
var EmployerRegistrationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "employer_registration_decisions_total",
		Help:      "Total number of employer registration decisions, by resulting status.",
	},
	[]string{"status"},
)
