package routecache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mobility_route_cache_lookups_total",
		Help: "Route cache lookups by result (hit, miss)",
	}, []string{"result"})

	evictionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mobility_route_cache_evictions_total",
		Help: "Route cache evictions by reason (size, idle)",
	}, []string{"reason"})

	// result: found, none, failed, unavailable
	computationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mobility_route_computations_total",
		Help: "Route computations by vehicle and result",
	}, []string{"vehicle", "result"})

	computationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mobility_route_computation_duration_seconds",
		Help:    "Route computation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
	}, []string{"vehicle"})
)
