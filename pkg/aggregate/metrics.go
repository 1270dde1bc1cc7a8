package aggregate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tributary-io/tributary/pkg/metrics"
)

// openAccumulators tracks the live accumulator count per query
var openAccumulators = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Subsystem: "aggregate_store",
	Name:      "open_accumulators",
	Help:      "Number of open accumulators",
}, []string{metrics.LabelQuery})

// closedWindowResults is used to indicate the number of results emitted by window close
var closedWindowResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "aggregate_store",
	Name:      "closed_window_results_total",
	Help:      "Total number of results emitted by closing windows",
}, []string{metrics.LabelQuery})

// rejectedFolds is used to indicate the number of folds rejected because the target window had closed
var rejectedFolds = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "aggregate_store",
	Name:      "rejected_folds_total",
	Help:      "Total number of folds rejected because the window had already closed",
}, []string{metrics.LabelQuery})
