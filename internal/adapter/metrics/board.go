package metrics

import "github.com/prometheus/client_golang/prometheus"

// Submission results recorded on MessagesPosted.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
)

// BoardMetrics holds Prometheus metrics for the message window.
type BoardMetrics struct {
	MessagesPosted   *prometheus.CounterVec
	MessagesEvicted  prometheus.Counter
	MessagesRetained prometheus.Gauge
	RenderFailures   *prometheus.CounterVec
}

// NewBoardMetrics creates and registers board metrics on the given registry.
func NewBoardMetrics(reg prometheus.Registerer) *BoardMetrics {
	m := &BoardMetrics{
		MessagesPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "board",
			Name:      "messages_posted_total",
			Help:      "Total number of message submissions, by result.",
		}, []string{"result"}),
		MessagesEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "board",
			Name:      "messages_evicted_total",
			Help:      "Total number of messages evicted from the window.",
		}),
		MessagesRetained: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "board",
			Name:      "messages_retained",
			Help:      "Number of messages currently held in the window.",
		}),
		RenderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "board",
			Name:      "render_failures_total",
			Help:      "Total number of fragment render failures, by fragment kind.",
		}, []string{"fragment"}),
	}

	reg.MustRegister(m.MessagesPosted, m.MessagesEvicted, m.MessagesRetained, m.RenderFailures)
	return m
}
