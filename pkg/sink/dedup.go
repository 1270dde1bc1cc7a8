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

package sink

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tributary-io/tributary/pkg/aggregate"
)

// DedupSink suppresses re-emission of recently delivered (window, group)
// partitions. The engine already closes each window exactly once while the
// query lives; the LRU additionally absorbs replays after a restart, keeping
// the downstream contract at-most-once per partition within the cache
// horizon.
type DedupSink struct {
	next Sinker
	seen *lru.Cache[string, struct{}]
}

var _ Sinker = (*DedupSink)(nil)

// NewDedupSink wraps next with an LRU of the given size over emitted
// partition ids.
func NewDedupSink(next Sinker, size int) (*DedupSink, error) {
	seen, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, err
	}
	return &DedupSink{next: next, seen: seen}, nil
}

func (s *DedupSink) GetName() string {
	return s.next.GetName()
}

func (s *DedupSink) Write(ctx context.Context, results []aggregate.Result) error {
	fresh := make([]aggregate.Result, 0, len(results))
	for _, r := range results {
		if _, dup := s.seen.Get(r.ID.String()); dup {
			continue
		}
		fresh = append(fresh, r)
	}
	if len(fresh) == 0 {
		return nil
	}
	if err := s.next.Write(ctx, fresh); err != nil {
		return err
	}
	// mark only after a successful write so a failed batch is retried whole
	for _, r := range fresh {
		s.seen.Add(r.ID.String(), struct{}{})
	}
	return nil
}

func (s *DedupSink) Close() error {
	return s.next.Close()
}
