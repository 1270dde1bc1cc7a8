package buffer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tributary-io/tributary/pkg/metrics"
)

// bufferedEvents tracks the number of buffered-but-unconsumed events
var bufferedEvents = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Subsystem: "buffer",
	Name:      "buffered_events",
	Help:      "Number of events currently buffered",
}, []string{metrics.LabelBuffer})
