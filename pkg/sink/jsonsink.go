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
	"io"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tributary-io/tributary/pkg/aggregate"
)

// JSONSink writes each result as one JSON line to a writer.
type JSONSink struct {
	name string
	w    io.Writer
	enc  *json.Encoder
	lock sync.Mutex
}

var _ Sinker = (*JSONSink)(nil)

// jsonResult is the wire form of one closed-window result.
type jsonResult struct {
	WindowStart time.Time              `json:"windowStart"`
	WindowEnd   time.Time              `json:"windowEnd"`
	GroupKey    string                 `json:"groupKey,omitempty"`
	Values      map[string]interface{} `json:"values"`
}

// NewJSONSink returns a sink writing JSON lines to w.
func NewJSONSink(name string, w io.Writer) *JSONSink {
	return &JSONSink{name: name, w: w, enc: json.NewEncoder(w)}
}

func (s *JSONSink) GetName() string {
	return s.name
}

func (s *JSONSink) Write(_ context.Context, results []aggregate.Result) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, r := range results {
		values := make(map[string]interface{}, len(r.Values))
		for _, v := range r.Values {
			values[v.Name] = v.Value
		}
		if err := s.enc.Encode(jsonResult{
			WindowStart: r.ID.Window.Start,
			WindowEnd:   r.ID.Window.End,
			GroupKey:    r.ID.Key,
			Values:      values,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *JSONSink) Close() error {
	return nil
}
