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

	"go.uber.org/zap"

	"github.com/tributary-io/tributary/pkg/shared/logging"
)

// Fetcher returns the watermark a consumer may rely on for window closing.
type Fetcher interface {
	// GetWatermark returns the current merged watermark.
	GetWatermark() Watermark
}

// minFetcher merges the watermarks of all partitions of a query by taking the
// minimum. A window may only close once every partition's watermark has passed
// its end; otherwise valid in-lag data from a lagging partition would be
// wrongly dropped.
type minFetcher struct {
	generators []*Generator
	lastMerged Watermark
	lock       sync.Mutex
	log        *zap.SugaredLogger
}

// NewMinFetcher returns a Fetcher that merges the given per-partition
// generators by minimum.
func NewMinFetcher(ctx context.Context, generators ...*Generator) Fetcher {
	return &minFetcher{
		generators: generators,
		lastMerged: InitialWatermark,
		log:        logging.FromContext(ctx),
	}
}

// GetWatermark returns the smallest watermark across all partitions. As each
// per-partition watermark is non-decreasing, so is their minimum; the last
// merged value is kept to guarantee it even while generators advance
// concurrently with the fetch.
func (m *minFetcher) GetWatermark() Watermark {
	m.lock.Lock()
	defer m.lock.Unlock()

	min := EndOfStream
	for _, g := range m.generators {
		if wm := g.Current(); wm.BeforeWatermark(min) {
			min = wm
		}
	}
	if min.AfterWatermark(m.lastMerged) {
		m.lastMerged = min
	}
	return m.lastMerged
}
