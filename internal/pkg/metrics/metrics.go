// Package metrics defines and registers the custom Prometheus metrics for the
// photosync API. HTTP request metrics come from echoprometheus; everything
// here is about the auth lifecycle.
//
// All metrics are registered with the default registry at package init via
// promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "photosync"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "invalid_credentials"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts accounts created through the API.
// Label:
//   - role: the role the account was created with
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_registrations_total",
		Help:      "Total number of registrations, by role.",
	},
	[]string{"role"},
)

// TokensRevokedTotal counts token records removed.
// Label:
//   - reason: "logout", "user_deleted" or "expired"
var TokensRevokedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_tokens_revoked_total",
		Help:      "Total number of access tokens revoked, by reason.",
	},
	[]string{"reason"},
)

// AccessDeniedTotal counts requests stopped by the authorization gate.
// Label:
//   - kind: "unauthenticated" (401) or "forbidden" (403)
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_access_denied_total",
		Help:      "Total number of requests denied by the authorization gate.",
	},
	[]string{"kind"},
)

// ── Audit pipeline metrics ────────────────────────────────────────────────────

// AuditEventsTotal counts audit events by outcome.
// Labels:
//   - kind: the auth event kind
//   - result: "stored", "failed" or "dropped"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of auth audit events, by kind and result.",
	},
	[]string{"kind", "result"},
)

// AuditQueueDepth tracks pending events per dispatcher worker.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
