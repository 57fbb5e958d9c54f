// Package metrics defines and registers the custom Prometheus metrics of the
// portal API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default registry through promauto when the
// package is imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Login metrics ─────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts password submissions.
// Label:
//   - result: "otp_required", "rejected" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of password submissions, by result.",
	},
	[]string{"result"},
)

// OtpVerificationsTotal counts OTP confirmations.
// Label:
//   - result: "authenticated", "invalid", "expired", "attempts_exceeded" or "error"
var OtpVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_verifications_total",
		Help:      "Total number of OTP confirmations, by result.",
	},
	[]string{"result"},
)

// OtpResendsTotal counts reissued OTP challenges.
var OtpResendsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_resends_total",
		Help:      "Total number of reissued OTP challenges.",
	},
)

// LogoutsTotal counts completed logouts.
var LogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of logouts.",
	},
)

// ── Access metrics ────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts route guard outcomes.
// Label:
//   - decision: "allow", "redirect_to_login", "redirect_to_default" or "pending"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of route guard decisions, by outcome.",
	},
	[]string{"decision"},
)

// RateLimitedTotal counts requests refused by the rate limiter.
var RateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter.",
	},
)

// RegisterActiveFlows exposes the number of live login flows reported by fn.
// Call it once at startup.
func RegisterActiveFlows(fn func() float64) {
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_login_flows",
			Help:      "Current number of login flows held in memory.",
		},
		fn,
	)
}

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsQueueDepth tracks pending notifications in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notifications_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationDeliveryDuration measures how long one delivery takes.
// Labels:
//   - channel: "email" or "sms"
//   - result: "sent" or "error"
var NotificationDeliveryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_delivery_duration_seconds",
		Help:      "Duration of notification delivery from dequeue to provider response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"channel", "result"},
)
