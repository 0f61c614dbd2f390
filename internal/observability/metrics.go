package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BanTransitions counts ban lifecycle transitions by target status and
	// outcome ("applied" or "lost_race").
	BanTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_ban_transitions_total",
		Help: "Total number of ban status transitions by target status and outcome",
	}, []string{"to_status", "outcome"})

	// BansCreated counts new ban episodes by type.
	BansCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_bans_created_total",
		Help: "Total number of bans created by ban type",
	}, []string{"ban_type"})

	// SweepRuns counts expiry sweep passes by outcome ("ok" or "error").
	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_sweep_runs_total",
		Help: "Total number of expiry sweep passes by outcome",
	}, []string{"outcome"})

	// SweepExpired counts bans flipped to EXPIRED by the sweeper.
	SweepExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warden_sweep_expired_total",
		Help: "Total number of bans expired by the sweeper",
	})

	// TopupsRejected counts top-up attempts refused by the eligibility window.
	TopupsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "warden_topups_rejected_total",
		Help: "Total number of top-ups rejected by the eligibility window",
	})

	// WebSocketConnectionsTotal is the gauge of active event-stream connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "warden_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "warden_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// RecordTransition increments the transition counter for one CAS attempt.
func RecordTransition(toStatus string, applied bool) {
	outcome := "applied"
	if !applied {
		outcome = "lost_race"
	}
	BanTransitions.WithLabelValues(toStatus, outcome).Inc()
}
