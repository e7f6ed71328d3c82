// Package metrics exposes Prometheus instrumentation for the collaboration
// server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveConnections tracks live WebSocket connections across all rooms.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collab_active_connections",
		Help: "Number of live collaborative editing connections.",
	})

	// ActiveRooms tracks the number of open document rooms.
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collab_active_rooms",
		Help: "Number of open document rooms.",
	})

	// MessagesTotal counts inbound protocol messages by type.
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collab_messages_total",
		Help: "Inbound protocol messages processed, by message type.",
	}, []string{"type"})
)

// Handler exposes Prometheus metrics at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
