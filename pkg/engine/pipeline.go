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

// Package engine executes one continuous query as a dataflow over its source
// partitions: source read, watermark observation, late-event filter, stateless
// transforms, window assignment, fold into the state store, and watermark
// driven close-and-emit to the sink.
//
// Each partition is owned by one goroutine end to end; the only shared state
// is the aggregation store (locked internally) and the merged watermark. A
// window closes only once the minimum watermark across every partition has
// passed its end, which is what keeps in-lag data from a slow partition from
// being wrongly dropped.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tributary-io/tributary/pkg/aggregate"
	"github.com/tributary-io/tributary/pkg/event"
	"github.com/tributary-io/tributary/pkg/metrics"
	"github.com/tributary-io/tributary/pkg/operator"
	"github.com/tributary-io/tributary/pkg/query"
	"github.com/tributary-io/tributary/pkg/shared/logging"
	"github.com/tributary-io/tributary/pkg/sink"
	"github.com/tributary-io/tributary/pkg/source"
	"github.com/tributary-io/tributary/pkg/watermark"
	"github.com/tributary-io/tributary/pkg/window"
	"github.com/tributary-io/tributary/pkg/window/sliding"
	"github.com/tributary-io/tributary/pkg/window/tumbling"
)

// Diagnostic is the structured record emitted when an event is dropped.
type Diagnostic struct {
	// Event is the drop reason, e.g. "late_event_dropped".
	Event string
	// StreamID is the partition the event was read from.
	StreamID string
	// EventTime is the event time of the dropped event.
	EventTime time.Time
	// CurrentWatermark is the partition watermark at the time of the drop.
	CurrentWatermark watermark.Watermark
}

// Pipeline executes one query over one or more source partitions.
type Pipeline struct {
	spec       *query.Spec
	sources    []source.Sourcer
	generators []*watermark.Generator
	fetcher    watermark.Fetcher
	assigner   window.Assigner
	filter     *operator.Filter
	projection *operator.Projection
	store      *aggregate.Store
	sink       sink.Sinker
	state      *atomic.Int32
	opts       *options
	log        *zap.SugaredLogger
	// emitLock serializes close-and-emit across partition loops and the
	// flush ticker so a closed window reaches the sink exactly once and in
	// one piece.
	emitLock sync.Mutex
}

// NewPipeline builds a pipeline for a validated query spec. One watermark
// generator is created per source partition; the sink is wrapped with bounded
// retries and emission dedup.
func NewPipeline(ctx context.Context, spec *query.Spec, sources []source.Sourcer, sk sink.Sinker, opts ...Option) (*Pipeline, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("query %s has no sources", spec.ID)
	}
	options := defaultOptions()
	for _, o := range opts {
		if err := o(options); err != nil {
			return nil, err
		}
	}

	var assigner window.Assigner
	switch spec.WindowStrategy {
	case window.Tumbling:
		assigner = tumbling.NewTumbling(spec.WindowSize)
	case window.Sliding:
		assigner = sliding.NewSliding(spec.WindowSize, spec.WindowSlide)
	default:
		return nil, fmt.Errorf("unsupported window strategy %s", spec.WindowStrategy)
	}

	var filter *operator.Filter
	if spec.Filter != "" {
		var err error
		if filter, err = operator.NewFilter(spec.Filter); err != nil {
			return nil, err
		}
	}
	var projection *operator.Projection
	if len(spec.Project) > 0 {
		projection = operator.NewProjection(spec.Project)
	}

	generators := make([]*watermark.Generator, 0, len(sources))
	for _, src := range sources {
		generators = append(generators, watermark.NewGenerator(ctx, src.GetName(), spec.MaxEventLag))
	}

	store := aggregate.NewStore(ctx, spec.NewAccumulators,
		aggregate.WithQueryID(spec.ID),
		aggregate.WithMaxAccumulators(spec.MaxAccumulators),
		aggregate.WithValueNames(spec.ValueNames()))

	dedup, err := sink.NewDedupSink(sink.NewRetryingSink(ctx, sk, spec.SinkRetries), options.dedupCacheSize)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		spec:       spec,
		sources:    sources,
		generators: generators,
		fetcher:    watermark.NewMinFetcher(ctx, generators...),
		assigner:   assigner,
		filter:     filter,
		projection: projection,
		store:      store,
		sink:       dedup,
		state:      atomic.NewInt32(int32(Starting)),
		opts:       options,
		log:        logging.FromContext(ctx).With("query", spec.ID),
	}, nil
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Run executes the query until the input is exhausted (Completed), the
// context is cancelled (Cancelled) or an unrecoverable error occurs (Failed).
// The returned error is nil for Completed and Cancelled; cancellation
// discards open windows, while already emitted windows stay valid.
func (p *Pipeline) Run(ctx context.Context) error {
	p.state.Store(int32(Running))
	p.log.Infow("Query started", "sources", len(p.sources), "strategy", p.assigner.Strategy().String())

	runCtx, cancelAll := context.WithCancel(ctx)
	defer cancelAll()

	g, gctx := errgroup.WithContext(runCtx)
	for i := range p.sources {
		src, gen := p.sources[i], p.generators[i]
		g.Go(func() error {
			return p.runPartition(gctx, src, gen)
		})
	}

	// the flush ticker runs outside the group: it must not keep Wait from
	// returning once every bounded partition has drained, and a sink failure
	// on its path still tears the partitions down via cancelAll
	var tickerDone chan error
	if p.opts.flushInterval > 0 {
		tickerDone = make(chan error, 1)
		go func() {
			terr := p.runFlushTicker(gctx)
			if terr != nil && !errors.Is(terr, context.Canceled) {
				cancelAll()
			}
			tickerDone <- terr
		}()
	}

	err := g.Wait()
	cancelAll()
	if tickerDone != nil {
		if terr := <-tickerDone; terr != nil && !errors.Is(terr, context.Canceled) {
			err = terr
		}
	}
	switch {
	case err == nil:
		p.state.Store(int32(Completed))
		p.log.Infow("Query completed")
		return nil
	case errors.Is(err, context.Canceled):
		p.state.Store(int32(Cancelled))
		p.log.Infow("Query cancelled, open windows discarded")
		return nil
	default:
		p.state.Store(int32(Failed))
		p.log.Errorw("Query failed", zap.Error(err))
		return err
	}
}

// runPartition is the per-partition read loop. It owns its source and
// watermark generator for the lifetime of the query.
func (p *Pipeline) runPartition(ctx context.Context, src source.Sourcer, gen *watermark.Generator) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		events, eof, err := src.Read(ctx, p.opts.readBatchSize)
		if err != nil {
			p.log.Errorw("Failed to read from source", "streamId", src.GetName(), zap.Error(err))
		}
		for _, ev := range events {
			if err := p.processEvent(ev, gen); err != nil {
				return err
			}
		}
		if len(events) > 0 {
			if err := p.closeAndEmit(ctx); err != nil {
				return err
			}
		}
		if eof {
			// end of input acts as a watermark advance to the end of the
			// stream; the merged watermark follows once every partition is
			// done, flushing all remaining windows
			gen.CloseOfStream()
			return p.closeAndEmit(ctx)
		}
	}
}

// processEvent runs one event through watermarking, the late filter, the
// stateless transforms, window assignment and the fold. Per-event failures
// are contained; only state overflow aborts the query.
func (p *Pipeline) processEvent(ev *event.Event, gen *watermark.Generator) error {
	wm, late := gen.Observe(ev)
	eventsProcessed.With(map[string]string{metrics.LabelQuery: p.spec.ID, metrics.LabelStream: ev.StreamID}).Inc()
	if late {
		p.dropLate(ev, wm)
		return nil
	}

	if p.filter != nil {
		keep, err := p.filter.Apply(ev)
		if err != nil {
			p.log.Warnw("filter_error_event_dropped", "streamId", ev.StreamID, "eventID", ev.ID, zap.Error(err))
			return nil
		}
		if !keep {
			return nil
		}
	}
	if p.projection != nil {
		ev = p.projection.Apply(ev)
	}

	groupKey := ev.GroupKey(p.spec.GroupBy)
	for _, w := range p.assigner.AssignWindows(ev.EventTime) {
		err := p.store.Fold(w, groupKey, ev)
		switch {
		case err == nil:
		case errors.Is(err, aggregate.ErrStateOverflow):
			return fmt.Errorf("query %s: %w", p.spec.ID, err)
		case errors.Is(err, aggregate.ErrClosedWindowFold):
			// already logged by the store; the event is dropped
		default:
			p.log.Warnw("fold_error_event_dropped", "streamId", ev.StreamID, "eventID", ev.ID, zap.Error(err))
		}
	}
	return nil
}

func (p *Pipeline) dropLate(ev *event.Event, wm watermark.Watermark) {
	p.log.Infow("late_event_dropped",
		"streamId", ev.StreamID,
		"eventTime", ev.EventTime,
		"currentWatermark", wm.String())
	lateEventsDropped.With(map[string]string{metrics.LabelQuery: p.spec.ID, metrics.LabelStream: ev.StreamID}).Inc()
	if p.opts.diagnosticListener != nil {
		p.opts.diagnosticListener(Diagnostic{
			Event:            "late_event_dropped",
			StreamID:         ev.StreamID,
			EventTime:        ev.EventTime,
			CurrentWatermark: wm,
		})
	}
}

// closeAndEmit closes every window below the merged watermark and forwards the
// results. A sink error here has already exhausted its retries and fails the
// query.
func (p *Pipeline) closeAndEmit(ctx context.Context) error {
	p.emitLock.Lock()
	defer p.emitLock.Unlock()

	if ctx.Err() != nil {
		// cancellation flushes nothing; open windows are discarded
		return ctx.Err()
	}

	wm := p.fetcher.GetWatermark()
	results := p.store.CloseWindowsUpTo(wm)
	if len(results) == 0 {
		return nil
	}
	p.log.Debugw("Closing windows", "watermark", wm.String(), "results", len(results))
	if err := p.sink.Write(ctx, results); err != nil {
		return fmt.Errorf("query %s: %w", p.spec.ID, err)
	}
	return nil
}

func (p *Pipeline) runFlushTicker(ctx context.Context) error {
	ticker := time.NewTicker(p.opts.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.closeAndEmit(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		}
	}
}

// Close releases the sources and the sink.
func (p *Pipeline) Close() error {
	var err error
	for _, src := range p.sources {
		err = multierr.Append(err, src.Close())
	}
	return multierr.Append(err, p.sink.Close())
}
