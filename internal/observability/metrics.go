package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of open WebSocket connections",
		},
	)

	PresenceOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_users_online",
			Help: "Users with a joined push connection",
		},
	)

	MessagesStoredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_stored_total",
			Help: "Messages durably appended to the store",
		},
	)

	PushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_events_total",
			Help: "Push events by name and outcome (delivered, dropped, offline)",
		},
		[]string{"event", "outcome"},
	)

	MessagesMarkedReadTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_marked_read_total",
			Help: "Messages flipped from unread to read",
		},
	)

	OutboxPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_events_published_total",
			Help: "Outbox events relayed to kafka",
		},
		[]string{"event_type"},
	)

	OutboxErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outbox_errors_total",
			Help: "Outbox relay batches that failed",
		},
	)
)
