package aggregate

import "fmt"

// storeOptions tune the state store.
type storeOptions struct {
	// queryID labels the store's metrics.
	queryID string
	// maxAccumulators bounds the number of live accumulators; 0 means
	// unbounded.
	maxAccumulators int
	// valueNames are the output names of the configured aggregations, in
	// declaration order.
	valueNames []string
}

type StoreOption func(*storeOptions)

func defaultStoreOptions() *storeOptions {
	return &storeOptions{
		maxAccumulators: 0,
	}
}

// WithQueryID sets the query id used as the metrics label.
func WithQueryID(id string) StoreOption {
	return func(o *storeOptions) {
		o.queryID = id
	}
}

// WithMaxAccumulators bounds the number of live accumulators; exceeding the
// bound surfaces ErrStateOverflow.
func WithMaxAccumulators(n int) StoreOption {
	return func(o *storeOptions) {
		o.maxAccumulators = n
	}
}

// WithValueNames sets the output names of the aggregations, in the order the
// store's accumulator factory produces them.
func WithValueNames(names []string) StoreOption {
	return func(o *storeOptions) {
		o.valueNames = names
	}
}

func (o *storeOptions) valueName(i int) string {
	if i < len(o.valueNames) {
		return o.valueNames[i]
	}
	return fmt.Sprintf("agg_%d", i)
}
