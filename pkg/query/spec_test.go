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

package query

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tributary-io/tributary/pkg/aggregate"
	"github.com/tributary-io/tributary/pkg/window"
)

func validSpec() *Spec {
	return &Spec{
		WindowStrategyName: "tumbling",
		WindowSize:         time.Minute,
		MaxEventLag:        500 * time.Millisecond,
		GroupBy:            []string{"region"},
		Aggregations: []Aggregation{
			{Name: "events", Func: aggregate.Count},
			{Name: "total", Func: aggregate.Sum, Field: "amount"},
		},
	}
}

func TestSpec_Validate(t *testing.T) {
	s := validSpec()
	assert.NoError(t, s.Validate())
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, window.Tumbling, s.WindowStrategy)
	assert.Equal(t, int64(defaultBufferSize), s.BufferSize)
	assert.Equal(t, defaultSinkRetries, s.SinkRetries)

	// empty strategy name defaults to tumbling
	s = validSpec()
	s.WindowStrategyName = ""
	assert.NoError(t, s.Validate())
	assert.Equal(t, window.Tumbling, s.WindowStrategy)
}

func TestSpec_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Spec)
	}{
		{name: "unknown strategy", mutate: func(s *Spec) { s.WindowStrategyName = "session" }},
		{name: "zero window size", mutate: func(s *Spec) { s.WindowSize = 0 }},
		{name: "sliding without slide", mutate: func(s *Spec) { s.WindowStrategyName = "sliding" }},
		{name: "negative lag", mutate: func(s *Spec) { s.MaxEventLag = -time.Second }},
		{name: "no aggregations", mutate: func(s *Spec) { s.Aggregations = nil }},
		{name: "unnamed aggregation", mutate: func(s *Spec) { s.Aggregations[0].Name = "" }},
		{name: "sum without field", mutate: func(s *Spec) { s.Aggregations[1].Field = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSpec()
			tt.mutate(s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestSpec_NewAccumulators(t *testing.T) {
	s := validSpec()
	assert.NoError(t, s.Validate())

	aggs, err := s.NewAccumulators()
	assert.NoError(t, err)
	assert.Len(t, aggs, 2)
	assert.Equal(t, []string{"events", "total"}, s.ValueNames())

	// each call returns independent state
	more, err := s.NewAccumulators()
	assert.NoError(t, err)
	assert.NoError(t, aggs[0].Fold(nil))
	assert.Equal(t, int64(1), aggs[0].Result())
	assert.Equal(t, int64(0), more[0].Result())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.yaml")
	err := os.WriteFile(path, []byte(`
windowStrategy: sliding
windowSize: 1m
windowSlide: 15s
maxEventLag: 500ms
groupBy:
  - region
filter: amount > 100
aggregations:
  - name: events
    func: count
  - name: total
    func: sum
    field: amount
`), 0o600)
	assert.NoError(t, err)

	spec, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, window.Sliding, spec.WindowStrategy)
	assert.Equal(t, time.Minute, spec.WindowSize)
	assert.Equal(t, 15*time.Second, spec.WindowSlide)
	assert.Equal(t, 500*time.Millisecond, spec.MaxEventLag)
	assert.Equal(t, []string{"region"}, spec.GroupBy)
	assert.Equal(t, "amount > 100", spec.Filter)
	assert.Len(t, spec.Aggregations, 2)
	assert.Equal(t, aggregate.Sum, spec.Aggregations[1].Func)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
