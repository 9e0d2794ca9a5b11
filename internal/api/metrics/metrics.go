// Package metrics defines and registers all custom Prometheus metrics
// for the identity service. It is the single source of truth for
// metric names, labels, and help strings.
//
// Registration happens at import time via promauto against the default
// registry; the /metrics route exposes it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// LoginsTotal counts login attempts by outcome.
// Label:
//   - result: "success", "failure" or "throttled"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// LoginDuration measures end-to-end login handling, dominated by the
// adaptive password hash.
var LoginDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "login_duration_seconds",
		Help:      "Duration of login handling from bind to response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// RegistrationsTotal counts successful self-service registrations.
// Label:
//   - role: "vendor" or "organizer"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of successful registrations, by role.",
	},
	[]string{"role"},
)

// TokenVerificationsTotal counts bearer-token checks in the guards.
// Labels:
//   - kind: "access" or "refresh"
//   - result: "ok" or "rejected"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of bearer token verifications, by kind and result.",
	},
	[]string{"kind", "result"},
)

// AccessTokensRefreshedTotal counts access tokens minted through the
// refresh flow.
var AccessTokensRefreshedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_tokens_refreshed_total",
		Help:      "Total number of access tokens minted via refresh.",
	},
)
