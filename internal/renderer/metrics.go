package renderer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	renderTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdf_renders_total",
			Help: "Total number of PDF renders by outcome",
		},
		[]string{"outcome"},
	)

	renderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pdf_render_duration_seconds",
			Help:    "Time spent in the browser engine per render",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)
