package metrics

import (
	"net/http"

	"github.com/ejulen/very-fancy-chat/internal/domain"
	"github.com/ejulen/very-fancy-chat/internal/platform/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fancychat"

// NewRegistry creates a Prometheus registry with Go runtime and process
// collectors, plus the build info and window capacity of this binary.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registerStatic(reg)
	return reg
}

func registerStatic(reg prometheus.Registerer) {
	info := version.Get()
	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information; always 1.",
	}, []string{"version", "commit", "go_version"})
	buildInfo.WithLabelValues(info.Version, info.Commit, info.GoVersion).Set(1)

	windowCapacity := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "board",
		Name:      "window_capacity",
		Help:      "Maximum number of messages kept on the board.",
	})
	windowCapacity.Set(domain.WindowSize)

	reg.MustRegister(buildInfo, windowCapacity)
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
