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

package watermark

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tributary-io/tributary/pkg/event"
	"github.com/tributary-io/tributary/pkg/shared/logging"
)

// Generator derives the watermark of one stream partition from the events it
// observes. The watermark trails the maximum event-time seen by a fixed lag,
// which bounds how far out of order events may arrive without being dropped.
//
// A Generator is owned by the single goroutine that reads its partition and is
// scoped to the lifetime of the query. Observation is single-writer; the lock
// only serializes reads of the current watermark from the merge fetcher.
// maxSeen is tracked from the first event of the query, not from process start.
type Generator struct {
	streamID    string
	maxLag      time.Duration
	maxSeen     time.Time
	current     Watermark
	established bool
	eos         bool
	log         *zap.SugaredLogger
	lock        sync.RWMutex
}

// NewGenerator returns a watermark generator for one stream partition.
func NewGenerator(ctx context.Context, streamID string, maxLag time.Duration) *Generator {
	return &Generator{
		streamID: streamID,
		maxLag:   maxLag,
		current:  InitialWatermark,
		log:      logging.FromContext(ctx).With("streamId", streamID),
	}
}

// Observe folds one event into the generator state and returns the watermark
// after the event's contribution, plus whether the event itself is late.
//
// Lateness is judged against the watermark as it stood before this event, so
// an event can never mask its own lateness. No event is considered late before
// at least one prior event has established a watermark. A late event cannot
// move maxSeen, so observing it is safe; the caller must still drop it before
// window assignment.
func (g *Generator) Observe(ev *event.Event) (Watermark, bool) {
	g.lock.Lock()
	defer g.lock.Unlock()

	late := g.established && ev.EventTime.Before(time.Time(g.current))

	if ev.EventTime.After(g.maxSeen) {
		g.maxSeen = ev.EventTime
	}
	wm := Watermark(g.maxSeen.Add(-g.maxLag))
	// the watermark never regresses
	if wm.AfterWatermark(g.current) {
		g.current = wm
	}
	g.established = true
	return g.current, late
}

// Current returns the watermark as of the last observed event, or
// InitialWatermark if none has been observed yet.
func (g *Generator) Current() Watermark {
	g.lock.RLock()
	defer g.lock.RUnlock()
	return g.current
}

// StreamID returns the id of the partition this generator tracks.
func (g *Generator) StreamID() string {
	return g.streamID
}

// CloseOfStream advances the watermark to EndOfStream. A bounded source calls
// this after its input is exhausted so every open window can be flushed; the
// partition then no longer holds back the merged watermark.
func (g *Generator) CloseOfStream() Watermark {
	g.lock.Lock()
	defer g.lock.Unlock()
	if !g.eos {
		g.eos = true
		g.current = EndOfStream
		g.log.Infow("Stream reached end of input, watermark advanced to end of stream")
	}
	return g.current
}
