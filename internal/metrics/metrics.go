// Package metrics exposes Prometheus collectors for topology builds and renders
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trackerdeploy/internal/topology"
)

// Build and render outcomes
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
	ResultDefect  = "defect"
	ResultError   = "error"
)

var (
	topologyBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackerdeploy_topology_builds_total",
		Help: "Topology builds by result",
	}, []string{"result"})

	topologyBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trackerdeploy_topology_build_duration_seconds",
		Help:    "Time to validate and derive a topology",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
	})

	topologyServices = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trackerdeploy_topology_services",
		Help:    "Enabled services per successful build",
		Buckets: []float64{1, 2, 3, 4, 5, 6},
	})

	composeRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackerdeploy_compose_renders_total",
		Help: "Compose project renders by result",
	}, []string{"result"})

	topologyCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackerdeploy_topology_cache_lookups_total",
		Help: "Lookups of derived topologies of registered environments",
	}, []string{"result"})
)

// BuildResult classifies a topology build error
func BuildResult(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, topology.ErrInvalidConfiguration):
		return ResultInvalid
	case errors.Is(err, topology.ErrInternalConsistency):
		return ResultDefect
	default:
		return ResultError
	}
}

// ObserveBuild records one topology build that started at start
func ObserveBuild(start time.Time, t *topology.Topology, err error) {
	topologyBuildDuration.Observe(time.Since(start).Seconds())
	topologyBuilds.WithLabelValues(BuildResult(err)).Inc()
	if err == nil && t != nil {
		topologyServices.Observe(float64(len(t.Services())))
	}
}

// ObserveRender records the outcome of a compose render
func ObserveRender(err error) {
	if err != nil {
		composeRenders.WithLabelValues(ResultError).Inc()
		return
	}
	composeRenders.WithLabelValues(ResultOK).Inc()
}

// ObserveCacheLookup records a topology cache hit or miss
func ObserveCacheLookup(hit bool) {
	if hit {
		topologyCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	topologyCacheLookups.WithLabelValues("miss").Inc()
}

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
