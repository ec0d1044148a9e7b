package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 各出行方式路网的初始化结果，result为imported/loaded/failed
	graphInitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mobility_graph_init_total",
		Help: "Routing graph initializations by vehicle and result",
	}, []string{"vehicle", "result"})

	graphInitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mobility_graph_init_duration_seconds",
		Help:    "Routing graph initialization duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"vehicle"})

	// 当前可用路网的规模
	graphNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mobility_graph_nodes",
		Help: "Node count of the published routing graph",
	}, []string{"vehicle"})
	graphEdges = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mobility_graph_edges",
		Help: "Directed edge count of the published routing graph",
	}, []string{"vehicle"})
	graphComponents = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mobility_graph_components",
		Help: "Weakly connected component count of the published routing graph",
	}, []string{"vehicle"})
)
