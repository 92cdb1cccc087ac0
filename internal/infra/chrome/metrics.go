package chrome

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	engineLaunches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pdf_engine_launches_total",
			Help: "Total number of Chrome processes started",
		},
	)

	enginePagesOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pdf_engine_pages_open",
			Help: "Current number of open Chrome pages",
		},
	)
)
