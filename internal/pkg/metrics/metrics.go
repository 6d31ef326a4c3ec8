// Package metrics defines and registers all custom Prometheus metrics for the
// skillswap API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// init through promauto and exposed by the /metrics handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "skillswap"

// ── Ledger metrics ────────────────────────────────────────────────────────────

// LedgerTransfersTotal counts transfer attempts.
// Label:
//   - result: "ok", "insufficient_funds", "already_settled" or "error"
var LedgerTransfersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_transfers_total",
		Help:      "Total number of credit transfers, labelled by result.",
	},
	[]string{"result"},
)

// LedgerCreditsMovedTotal sums credits moved by successful transfers.
var LedgerCreditsMovedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_credits_moved_total",
		Help:      "Total number of credits moved between accounts.",
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionTransitionsTotal counts applied status transitions.
// Label:
//   - to: the new session status (e.g. "accepted")
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session status transitions applied.",
	},
	[]string{"to"},
)

// SessionSettleDuration measures how long completion settlement takes,
// from lock acquisition to the final status write.
var SessionSettleDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "session_settle_duration_seconds",
		Help:      "Duration of session settlement (lock, transfer, completion).",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal counts notification deliveries.
// Label:
//   - result: "stored", "dropped" or "error"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of notifications handled by the dispatcher, by result.",
	},
	[]string{"result"},
)

// NotificationQueueDepth tracks pending notifications per worker.
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Signaling metrics ─────────────────────────────────────────────────────────

// SignalingConnections tracks currently registered signaling connections.
var SignalingConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "signaling_connections",
		Help:      "Current number of authenticated signaling connections.",
	},
)

// SignalingRooms tracks currently open rooms.
var SignalingRooms = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "signaling_rooms",
		Help:      "Current number of non-empty signaling rooms.",
	},
)

// SignalingMessagesTotal counts inbound signaling messages.
// Labels:
//   - event: the client event name (e.g. "offer", "joinRoom")
//   - result: "relayed", "dropped", "handled" or "rejected"
var SignalingMessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signaling_messages_total",
		Help:      "Total number of signaling messages handled, by event and result.",
	},
	[]string{"event", "result"},
)
