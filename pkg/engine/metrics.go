package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tributary-io/tributary/pkg/metrics"
)

// eventsProcessed is used to indicate the number of events admitted to the pipeline
var eventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "engine",
	Name:      "events_total",
	Help:      "Total number of events processed",
}, []string{metrics.LabelQuery, metrics.LabelStream})

// lateEventsDropped is used to indicate the number of events dropped as late
var lateEventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "engine",
	Name:      "late_events_dropped_total",
	Help:      "Total number of events dropped because they arrived behind the watermark",
}, []string{metrics.LabelQuery, metrics.LabelStream})
