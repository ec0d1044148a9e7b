package mobility

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// result: traced, static, rejected
	admissionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mobility_admissions_total",
		Help: "Agent admission decisions by result",
	}, []string{"result"})

	agentsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mobility_agents",
		Help: "Number of admitted agents",
	})
)
