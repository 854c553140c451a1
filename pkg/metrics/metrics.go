package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Global metrics, registered on the default registry through promauto.

var (
	// StageDuration measures the per-frame stages and rebuilds.
	// Stages: proximity, visibility, click, reproject.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "kektorspace_stage_duration_seconds",
			Help: "Duration of engine stages in seconds",
			// From sub-millisecond frame work up to multi-second UMAP builds.
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"stage"},
	)

	// SelectionItems tracks how many items each selection source weights.
	SelectionItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kektorspace_selection_items",
			Help: "Number of weighted items per selection source",
		},
		[]string{"source"},
	)

	// VisibleLabels is the size of the current visible set.
	VisibleLabels = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kektorspace_visible_labels",
			Help: "Number of labels currently shown",
		},
	)

	// WeightEmissions counts combined-weight maps handed to the consumer.
	WeightEmissions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kektorspace_weight_emissions_total",
			Help: "Total number of combined weight emissions",
		},
	)

	// Reprojections counts projection rebuilds.
	Reprojections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kektorspace_reprojections_total",
			Help: "Total number of projection rebuilds",
		},
	)
)
