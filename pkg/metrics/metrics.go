package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betadesk_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// ActiveSessions tracks active sessions (not expired/revoked).
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "betadesk_active_sessions",
			Help: "Number of active sessions",
		},
	)

	// EmailSends counts outbound email attempts by channel and result (sent|failed).
	EmailSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betadesk_email_sends_total",
			Help: "Total number of outbound email attempts",
		},
		[]string{"channel", "result"},
	)

	// BookingAttempts counts slot booking attempts by outcome (confirmed|full|error).
	BookingAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "betadesk_booking_attempts_total",
			Help: "Total number of slot booking attempts",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "betadesk_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
