package sink

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tributary-io/tributary/pkg/metrics"
)

// sinkRetries is used to indicate the number of retried sink writes
var sinkRetries = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "sink",
	Name:      "write_retries_total",
	Help:      "Total number of retried sink writes",
}, []string{metrics.LabelSink})
