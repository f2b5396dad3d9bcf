package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbridge_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatbridge_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	// Realtime
	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatbridge_live_connections",
			Help: "Connections currently registered in the presence registry",
		},
	)

	EventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbridge_events_delivered_total",
			Help: "Realtime events pushed to a live connection",
		},
		[]string{"event"},
	)

	DeliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbridge_event_delivery_failures_total",
			Help: "Realtime pushes that failed and were dropped",
		},
		[]string{"event"},
	)

	// Business metrics
	MessagesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbridge_messages_created_total",
			Help: "Messages persisted",
		},
		[]string{"type", "origin"}, // origin: "direct" or "inbound"
	)

	WebhookMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbridge_webhook_messages_total",
			Help: "Inbound webhook messages by outcome",
		},
		[]string{"result"}, // "created", "skipped", "failed"
	)

	MediaDownloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbridge_media_downloads_total",
			Help: "Attachment downloads from the messaging provider",
		},
		[]string{"result"},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbridge_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"limiter"},
	)
)
