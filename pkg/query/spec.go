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

// Package query carries the configuration the external planner hands to the
// engine: windowing, allowed lag, group-by keys, aggregations and the
// stateless transforms of the plan. The engine never sees SQL text.
package query

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tributary-io/tributary/pkg/aggregate"
	"github.com/tributary-io/tributary/pkg/window"
)

// Aggregation is one aggregate output column of the query.
type Aggregation struct {
	// Name is the output column name.
	Name string `json:"name" mapstructure:"name"`
	// Func is the aggregation function.
	Func aggregate.Func `json:"func" mapstructure:"func"`
	// Field is the input field; ignored for count.
	Field string `json:"field" mapstructure:"field"`
}

// Spec is the executable form of one continuous query on a single node.
type Spec struct {
	// ID identifies the query; assigned if empty.
	ID string `json:"id" mapstructure:"id"`
	// WindowStrategy selects the windowing strategy, tumbling or sliding.
	WindowStrategy window.Strategy `json:"-" mapstructure:"-"`
	// WindowStrategyName is the textual form used in config files.
	WindowStrategyName string `json:"windowStrategy" mapstructure:"windowStrategy"`
	// WindowSize is the temporal length of the window.
	WindowSize time.Duration `json:"windowSize" mapstructure:"windowSize"`
	// WindowSlide is the slide interval for sliding windows.
	WindowSlide time.Duration `json:"windowSlide" mapstructure:"windowSlide"`
	// MaxEventLag bounds the accepted out-of-orderness; the watermark trails
	// the maximum seen event time by this much.
	MaxEventLag time.Duration `json:"maxEventLag" mapstructure:"maxEventLag"`
	// GroupBy is the ordered list of group-by fields.
	GroupBy []string `json:"groupBy" mapstructure:"groupBy"`
	// Filter is an optional predicate expression over the event fields.
	Filter string `json:"filter" mapstructure:"filter"`
	// Project is an optional list of fields to keep before aggregation.
	Project []string `json:"project" mapstructure:"project"`
	// Aggregations are the aggregate outputs of the query.
	Aggregations []Aggregation `json:"aggregations" mapstructure:"aggregations"`
	// BufferSize is the capacity of the backpressure buffer of each source.
	BufferSize int64 `json:"bufferSize" mapstructure:"bufferSize"`
	// MaxAccumulators bounds the live aggregation state; 0 means unbounded.
	MaxAccumulators int `json:"maxAccumulators" mapstructure:"maxAccumulators"`
	// SinkRetries bounds the write attempts per result batch.
	SinkRetries int `json:"sinkRetries" mapstructure:"sinkRetries"`
}

const (
	defaultBufferSize  = 1024
	defaultSinkRetries = 5
)

// Validate checks the spec and fills in defaults. It must be called before the
// spec is handed to the engine.
func (s *Spec) Validate() error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	switch s.WindowStrategyName {
	case "", "tumbling":
		s.WindowStrategy = window.Tumbling
	case "sliding":
		s.WindowStrategy = window.Sliding
	default:
		return fmt.Errorf("unsupported window strategy %q", s.WindowStrategyName)
	}
	if s.WindowSize <= 0 {
		return fmt.Errorf("windowSize must be positive, got %v", s.WindowSize)
	}
	if s.WindowStrategy == window.Sliding && s.WindowSlide <= 0 {
		return fmt.Errorf("windowSlide must be positive for sliding windows, got %v", s.WindowSlide)
	}
	if s.MaxEventLag < 0 {
		return fmt.Errorf("maxEventLag must not be negative, got %v", s.MaxEventLag)
	}
	if len(s.Aggregations) == 0 {
		return fmt.Errorf("at least one aggregation is required")
	}
	for _, a := range s.Aggregations {
		if a.Name == "" {
			return fmt.Errorf("aggregation name must not be empty")
		}
		if a.Func != aggregate.Count && a.Field == "" {
			return fmt.Errorf("aggregation %q needs an input field", a.Name)
		}
		if _, err := aggregate.New(a.Func, a.Field); err != nil {
			return fmt.Errorf("aggregation %q: %w", a.Name, err)
		}
	}
	if s.BufferSize <= 0 {
		s.BufferSize = defaultBufferSize
	}
	if s.SinkRetries <= 0 {
		s.SinkRetries = defaultSinkRetries
	}
	return nil
}

// NewAccumulators builds a fresh aggregator set in declaration order; it is
// the factory the state store creates accumulators with.
func (s *Spec) NewAccumulators() ([]aggregate.Aggregator, error) {
	aggs := make([]aggregate.Aggregator, 0, len(s.Aggregations))
	for _, a := range s.Aggregations {
		agg, err := aggregate.New(a.Func, a.Field)
		if err != nil {
			return nil, err
		}
		aggs = append(aggs, agg)
	}
	return aggs, nil
}

// ValueNames returns the output column names in declaration order.
func (s *Spec) ValueNames() []string {
	names := make([]string, 0, len(s.Aggregations))
	for _, a := range s.Aggregations {
		names = append(names, a.Name)
	}
	return names
}
