// Package metrics defines and registers all custom Prometheus metrics for the
// session auth service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry at package init.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// ── Login metrics ─────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts by outcome.
// Label:
//   - result: "ok", "challenge_invalid", "invalid_credentials", "rate_limited", "invalid_input", "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts registration attempts by outcome.
// Label:
//   - result: "created", "conflict", "invalid_input", "forbidden", "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// SessionsRejectedTotal counts requests refused by the session guard.
// Label:
//   - reason: "missing", "expired", "malformed"
var SessionsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_rejected_total",
		Help:      "Total number of requests rejected by the session guard.",
	},
	[]string{"reason"},
)

// ── Challenge metrics ─────────────────────────────────────────────────────────

var ChallengesIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "challenges_issued_total",
		Help:      "Total number of captcha challenges issued.",
	},
)

// ChallengesValidatedTotal counts validation outcomes.
// Label:
//   - result: "ok", "wrong", "expired", "unknown", "bypassed"
var ChallengesValidatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "challenges_validated_total",
		Help:      "Total number of captcha validations, by result.",
	},
	[]string{"result"},
)

var ChallengesSweptTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "challenges_swept_total",
		Help:      "Total number of expired captcha challenges removed by the sweeper.",
	},
)

// ChallengesPending tracks challenges that are stored and not yet consumed.
var ChallengesPending = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "challenges_pending",
		Help:      "Current number of captcha challenges held in memory.",
	},
)

// ── Hashing metrics ───────────────────────────────────────────────────────────

// PasswordHashDuration measures bcrypt work including the wait for a worker.
// Label:
//   - op: "hash" or "verify"
var PasswordHashDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "password_hash_duration_seconds",
		Help:      "Duration of password hash and verify operations, queue wait included.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
	},
	[]string{"op"},
)

// ObserveHash records one password operation. It matches the observe
// callback of security.NewPooledHasher.
func ObserveHash(op string, d time.Duration) {
	PasswordHashDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ChallengeObserver feeds captcha manager events into the challenge metrics.
type ChallengeObserver struct{}

func (ChallengeObserver) ChallengeIssued() {
	ChallengesIssuedTotal.Inc()
	ChallengesPending.Inc()
}

// ChallengeValidated is called once per consumed entry. "unknown" means no
// entry was found, so the gauge is left alone.
func (ChallengeObserver) ChallengeValidated(result string) {
	ChallengesValidatedTotal.WithLabelValues(result).Inc()
	if result != "unknown" {
		ChallengesPending.Dec()
	}
}

func (ChallengeObserver) ChallengesSwept(n int) {
	ChallengesSweptTotal.Add(float64(n))
	ChallengesPending.Sub(float64(n))
}
