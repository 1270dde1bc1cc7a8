package engine

import "time"

type options struct {
	// readBatchSize is the number of events read from a source per iteration.
	readBatchSize int64
	// flushInterval re-evaluates window closing while no batches arrive; 0
	// disables the ticker.
	flushInterval time.Duration
	// dedupCacheSize is the size of the sink's emission dedup LRU.
	dedupCacheSize int
	// diagnosticListener, if set, receives a record for every dropped event.
	diagnosticListener func(Diagnostic)
}

type Option func(*options) error

func defaultOptions() *options {
	return &options{
		readBatchSize:  64,
		flushInterval:  time.Second,
		dedupCacheSize: 1024,
	}
}

// WithReadBatchSize sets the per-iteration source read size.
func WithReadBatchSize(n int64) Option {
	return func(o *options) error {
		o.readBatchSize = n
		return nil
	}
}

// WithFlushInterval sets how often window closing is re-evaluated while the
// sources are quiet. Zero disables the periodic flush.
func WithFlushInterval(d time.Duration) Option {
	return func(o *options) error {
		o.flushInterval = d
		return nil
	}
}

// WithDedupCacheSize sets the emission dedup LRU size.
func WithDedupCacheSize(n int) Option {
	return func(o *options) error {
		o.dedupCacheSize = n
		return nil
	}
}

// WithDiagnosticListener registers a callback for drop diagnostics, in
// addition to the structured log record every drop emits.
func WithDiagnosticListener(fn func(Diagnostic)) Option {
	return func(o *options) error {
		o.diagnosticListener = fn
		return nil
	}
}
