// Package metrics provides Prometheus instrumentation for the signaling
// server. It exposes gauges for connection, pool, and pair counts, a counter
// for relayed event volume, and a histogram for match wait latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsTotal tracks the current number of active WebSocket connections.
	ConnectionsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "signalcore_connections_total",
		Help: "Current number of active WebSocket connections",
	})

	// WaitingPoolSize tracks the current number of clients in the waiting pool.
	WaitingPoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "signalcore_waiting_pool_size",
		Help: "Current number of clients waiting for a partner",
	})

	// ActivePairs tracks the current number of bound pairs.
	ActivePairs = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "signalcore_active_pairs",
		Help: "Current number of active paired sessions",
	})

	// RelayedTotal counts events relayed between paired clients, labeled by
	// event type ("send_message", "offer", "answer", "ice-candidate",
	// "stop_video").
	RelayedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signalcore_relayed_total",
		Help: "Total number of events relayed between paired clients",
	}, []string{"event"})

	// MatchWaitSeconds records the time a client spends in the waiting pool
	// before being paired.
	MatchWaitSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "signalcore_match_wait_seconds",
		Help:    "Time spent in the waiting pool before being paired",
		Buckets: []float64{.5, 1, 2, 5, 10, 15, 20, 30, 60},
	})
)

func init() {
	prometheus.MustRegister(
		ConnectionsTotal,
		WaitingPoolSize,
		ActivePairs,
		RelayedTotal,
		MatchWaitSeconds,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
