package buffer

import "time"

type options struct {
	// readTimeout is the maximum time a Read waits for data before returning
	// what it has.
	readTimeout time.Duration
	// blockInterval is the poll interval of the full/empty wait loops.
	blockInterval time.Duration
}

type Option func(*options)

// WithReadTimeout sets the maximum wait of an empty Read.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.readTimeout = d
	}
}

// WithBlockInterval sets the poll interval used while blocked on a full or
// empty buffer.
func WithBlockInterval(d time.Duration) Option {
	return func(o *options) {
		o.blockInterval = d
	}
}
