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

package source

import (
	"context"
	"sync"

	"github.com/tributary-io/tributary/pkg/event"
)

// SliceSource serves a fixed set of events in order and then reports eof. It
// is the bounded source used in tests and examples.
type SliceSource struct {
	name   string
	events []*event.Event
	cursor int
	lock   sync.Mutex
}

var _ Sourcer = (*SliceSource)(nil)

// NewSliceSource returns a bounded source over the given events.
func NewSliceSource(name string, events []*event.Event) *SliceSource {
	return &SliceSource{name: name, events: events}
}

func (s *SliceSource) GetName() string {
	return s.name
}

func (s *SliceSource) Read(_ context.Context, count int64) ([]*event.Event, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	remaining := len(s.events) - s.cursor
	if remaining == 0 {
		return nil, true, nil
	}
	n := int(count)
	if n > remaining {
		n = remaining
	}
	batch := s.events[s.cursor : s.cursor+n]
	s.cursor += n
	return batch, s.cursor == len(s.events), nil
}

func (s *SliceSource) Close() error {
	return nil
}
