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
	"sync"

	"github.com/tributary-io/tributary/pkg/aggregate"
)

// MemorySink records results in memory. It is used in tests; FailFirst makes
// the first n writes fail to exercise the retry path.
type MemorySink struct {
	name      string
	results   []aggregate.Result
	failFirst int
	writes    int
	lock      sync.Mutex
}

var _ Sinker = (*MemorySink)(nil)

// NewMemorySink returns an in-memory sink.
func NewMemorySink(name string) *MemorySink {
	return &MemorySink{name: name}
}

// FailFirst makes the next n writes return ErrUnavailable.
func (s *MemorySink) FailFirst(n int) *MemorySink {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failFirst = n
	return s
}

func (s *MemorySink) GetName() string {
	return s.name
}

func (s *MemorySink) Write(_ context.Context, results []aggregate.Result) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.writes++
	if s.writes <= s.failFirst {
		return ErrUnavailable
	}
	s.results = append(s.results, results...)
	return nil
}

// Results returns a copy of everything delivered so far.
func (s *MemorySink) Results() []aggregate.Result {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]aggregate.Result, len(s.results))
	copy(out, s.results)
	return out
}

func (s *MemorySink) Close() error {
	return nil
}
