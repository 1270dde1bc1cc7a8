/*
Copyright 2024 The Tributary Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package aggregate

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tributary-io/tributary/pkg/event"
	"github.com/tributary-io/tributary/pkg/metrics"
	"github.com/tributary-io/tributary/pkg/partition"
	"github.com/tributary-io/tributary/pkg/shared/logging"
	"github.com/tributary-io/tributary/pkg/watermark"
	"github.com/tributary-io/tributary/pkg/window"
)

var (
	// ErrStateOverflow indicates the number of live accumulators exceeded the
	// configured bound (typically runaway group-by cardinality). It is fatal
	// for the query.
	ErrStateOverflow = errors.New("aggregation state overflow, too many open accumulators")
	// ErrClosedWindowFold indicates a fold targeted a window that has already
	// been closed and emitted. The pipeline filters late events before window
	// assignment, so this only fires on a wiring bug; the fold is rejected
	// rather than silently reopening the window.
	ErrClosedWindowFold = errors.New("fold into an already closed window")
)

// Result is the finalized aggregate of one (window, group) partition.
type Result struct {
	ID partition.ID
	// Values holds one finalized value per configured aggregation, in the
	// order the aggregations were declared.
	Values []Value
}

// Value is a single named aggregate output.
type Value struct {
	Name  string
	Value interface{}
}

// accumulator is the partial aggregate state of one partition. It exists iff
// at least one event has been folded into it and its window has not yet been
// closed and emitted.
type accumulator struct {
	id   partition.ID
	aggs []Aggregator
}

// Store is the keyed, per-window accumulator storage of one query. Folds
// locate or create accumulators; closing removes every accumulator whose
// window end the watermark has passed, so memory stays bounded by the set of
// open windows (times group cardinality, which is itself bounded by
// maxAccumulators).
//
// Folds from different partitions may target the same (window, group) key, so
// all state is guarded by one lock; the critical sections are small.
type Store struct {
	newAccumulators func() ([]Aggregator, error)
	accumulators    map[string]*accumulator
	closedUpTo      watermark.Watermark
	opts            *storeOptions
	log             *zap.SugaredLogger
	lock            sync.Mutex
}

// NewStore returns an empty store. newAccumulators builds the per-partition
// aggregator set from the query's aggregation list.
func NewStore(ctx context.Context, newAccumulators func() ([]Aggregator, error), opts ...StoreOption) *Store {
	options := defaultStoreOptions()
	for _, o := range opts {
		o(options)
	}
	return &Store{
		newAccumulators: newAccumulators,
		accumulators:    make(map[string]*accumulator),
		closedUpTo:      watermark.InitialWatermark,
		opts:            options,
		log:             logging.FromContext(ctx),
	}
}

// Fold applies one event to the accumulator of the given (window, group)
// partition, creating it on first use.
//
// Returns ErrClosedWindowFold if the partition's window has already been
// closed (defensive, the pipeline's late filter must prevent this) and
// ErrStateOverflow if creating the accumulator would exceed the configured
// bound. Any other error is a per-event aggregation failure; the event did not
// contribute and the store is unchanged.
func (s *Store) Fold(w window.IntervalWindow, groupKey string, ev *event.Event) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if w.ClosedBy(time.Time(s.closedUpTo)) {
		s.log.Errorw("Rejecting fold into closed window",
			zap.String("window", w.String()),
			zap.String("groupKey", groupKey),
			zap.String("eventID", ev.ID),
			zap.String("closedUpTo", s.closedUpTo.String()))
		rejectedFolds.With(map[string]string{metrics.LabelQuery: s.opts.queryID}).Inc()
		return ErrClosedWindowFold
	}

	id := partition.ID{Window: w, Key: groupKey}
	key := id.String()
	acc, ok := s.accumulators[key]
	if !ok {
		if s.opts.maxAccumulators > 0 && len(s.accumulators) >= s.opts.maxAccumulators {
			return ErrStateOverflow
		}
		aggs, err := s.newAccumulators()
		if err != nil {
			return err
		}
		acc = &accumulator{id: id, aggs: aggs}
		s.accumulators[key] = acc
		openAccumulators.With(map[string]string{metrics.LabelQuery: s.opts.queryID}).Set(float64(len(s.accumulators)))
	}

	// a freshly created accumulator is removed again if its first fold fails,
	// preserving the invariant that an accumulator exists iff at least one
	// event contributed to it
	for _, agg := range acc.aggs {
		if err := agg.Fold(ev); err != nil {
			if !ok {
				delete(s.accumulators, key)
			}
			return err
		}
	}
	return nil
}

// CloseWindowsUpTo finalizes, removes and returns every accumulator whose
// window end is at or below the given watermark. All groups of a closed window
// are returned together, exactly once; ordering across windows and across
// groups is unspecified.
func (s *Store) CloseWindowsUpTo(wm watermark.Watermark) []Result {
	s.lock.Lock()
	defer s.lock.Unlock()

	if wm.AfterWatermark(s.closedUpTo) {
		s.closedUpTo = wm
	}

	var results []Result
	for key, acc := range s.accumulators {
		if !acc.id.Window.ClosedBy(time.Time(s.closedUpTo)) {
			continue
		}
		values := make([]Value, 0, len(acc.aggs))
		for i, agg := range acc.aggs {
			values = append(values, Value{Name: s.opts.valueName(i), Value: agg.Result()})
		}
		results = append(results, Result{ID: acc.id, Values: values})
		delete(s.accumulators, key)
	}
	if len(results) > 0 {
		closedWindowResults.With(map[string]string{metrics.LabelQuery: s.opts.queryID}).Add(float64(len(results)))
		openAccumulators.With(map[string]string{metrics.LabelQuery: s.opts.queryID}).Set(float64(len(s.accumulators)))
	}
	return results
}

// OpenAccumulators returns the number of live accumulators.
func (s *Store) OpenAccumulators() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.accumulators)
}
