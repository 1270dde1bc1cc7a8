package source

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tributary-io/tributary/pkg/metrics"
)

// malformedEvents is used to indicate the number of records dropped because they did not match the schema
var malformedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "source",
	Name:      "malformed_events_total",
	Help:      "Total number of records dropped as malformed",
}, []string{metrics.LabelStream})
