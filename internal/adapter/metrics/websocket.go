package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebSocketMetrics holds Prometheus metrics for live-update subscribers.
type WebSocketMetrics struct {
	ActiveConnections   prometheus.Gauge
	FragmentsBroadcast  prometheus.Counter
	SlowClientsEvicted  prometheus.Counter
	WriteFailures       prometheus.Counter
	RejectedConnections *prometheus.CounterVec
	MessageSendDuration prometheus.Histogram
	CommandChannelDepth prometheus.Gauge
	BroadcasterPanics   prometheus.Counter
}

// NewWebSocketMetrics creates and registers WebSocket metrics on the given registry.
func NewWebSocketMetrics(reg prometheus.Registerer) *WebSocketMetrics {
	m := &WebSocketMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_connections",
			Help:      "Number of active WebSocket subscribers.",
		}),
		FragmentsBroadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "fragments_broadcast_total",
			Help:      "Total number of fragments fanned out to subscribers.",
		}),
		SlowClientsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "slow_clients_evicted_total",
			Help:      "Total number of subscribers dropped because their send buffer was full.",
		}),
		WriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "write_failures_total",
			Help:      "Total number of failed writes or pings to a subscriber.",
		}),
		RejectedConnections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "rejected_connections_total",
			Help:      "Total number of rejected WebSocket upgrades, by reason.",
		}, []string{"reason"}),
		MessageSendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "message_send_duration_seconds",
			Help:      "Time spent writing one fragment to one subscriber.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .5, 1},
		}),
		CommandChannelDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "command_channel_depth",
			Help:      "Current depth of the broadcaster command channel.",
		}),
		BroadcasterPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "broadcaster_panics_total",
			Help:      "Total broadcaster panic recoveries.",
		}),
	}

	reg.MustRegister(
		m.ActiveConnections,
		m.FragmentsBroadcast,
		m.SlowClientsEvicted,
		m.WriteFailures,
		m.RejectedConnections,
		m.MessageSendDuration,
		m.CommandChannelDepth,
		m.BroadcasterPanics,
	)
	return m
}
