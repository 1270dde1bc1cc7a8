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

// Package aggregate holds the incremental aggregation functions and the keyed
// per-window state store they are folded into. All aggregators are commutative
// folds: event arrival order within a window is only bounded by the allowed
// lag, so any order permitted by the lag must produce the same final value.
package aggregate

import (
	"fmt"
	"time"

	"github.com/tributary-io/tributary/pkg/event"
)

// Func names an aggregation function.
type Func string

const (
	Count Func = "count"
	Sum   Func = "sum"
	Min   Func = "min"
	Max   Func = "max"
	Avg   Func = "avg"
	Last  Func = "last"
)

// Aggregator is the incremental accumulator of one aggregation function over
// one partition. Fold is applied once per event; Result finalizes the value.
type Aggregator interface {
	// Fold applies the event to the running aggregate.
	Fold(ev *event.Event) error
	// Result returns the finalized aggregate value.
	Result() interface{}
}

// New returns a fresh accumulator for the given function over the given input
// field. Count ignores the input field.
func New(fn Func, field string) (Aggregator, error) {
	switch fn {
	case Count:
		return &countAgg{}, nil
	case Sum:
		return &sumAgg{field: field}, nil
	case Min:
		return &minAgg{field: field}, nil
	case Max:
		return &maxAgg{field: field}, nil
	case Avg:
		return &avgAgg{field: field}, nil
	case Last:
		return &lastAgg{field: field}, nil
	default:
		return nil, fmt.Errorf("unknown aggregation function %q", fn)
	}
}

type countAgg struct {
	n int64
}

func (a *countAgg) Fold(_ *event.Event) error {
	a.n++
	return nil
}

func (a *countAgg) Result() interface{} {
	return a.n
}

type sumAgg struct {
	field string
	sum   float64
}

func (a *sumAgg) Fold(ev *event.Event) error {
	v, err := numericField(ev, a.field)
	if err != nil {
		return err
	}
	a.sum += v
	return nil
}

func (a *sumAgg) Result() interface{} {
	return a.sum
}

type minAgg struct {
	field string
	min   float64
	seen  bool
}

func (a *minAgg) Fold(ev *event.Event) error {
	v, err := numericField(ev, a.field)
	if err != nil {
		return err
	}
	if !a.seen || v < a.min {
		a.min = v
		a.seen = true
	}
	return nil
}

func (a *minAgg) Result() interface{} {
	return a.min
}

type maxAgg struct {
	field string
	max   float64
	seen  bool
}

func (a *maxAgg) Fold(ev *event.Event) error {
	v, err := numericField(ev, a.field)
	if err != nil {
		return err
	}
	if !a.seen || v > a.max {
		a.max = v
		a.seen = true
	}
	return nil
}

func (a *maxAgg) Result() interface{} {
	return a.max
}

// avgAgg keeps sum and count separately, which keeps the fold commutative.
type avgAgg struct {
	field string
	sum   float64
	n     int64
}

func (a *avgAgg) Fold(ev *event.Event) error {
	v, err := numericField(ev, a.field)
	if err != nil {
		return err
	}
	a.sum += v
	a.n++
	return nil
}

func (a *avgAgg) Result() interface{} {
	if a.n == 0 {
		return float64(0)
	}
	return a.sum / float64(a.n)
}

// lastAgg keeps the field value of the event with the greatest event time, so
// the result does not depend on arrival order.
type lastAgg struct {
	field string
	val   interface{}
	ts    time.Time
	seen  bool
}

func (a *lastAgg) Fold(ev *event.Event) error {
	v, ok := ev.Field(a.field)
	if !ok {
		return fmt.Errorf("event %s has no field %q", ev.ID, a.field)
	}
	if !a.seen || ev.EventTime.After(a.ts) {
		a.val = v
		a.ts = ev.EventTime
		a.seen = true
	}
	return nil
}

func (a *lastAgg) Result() interface{} {
	return a.val
}

func numericField(ev *event.Event, field string) (float64, error) {
	v, ok := ev.Field(field)
	if !ok {
		return 0, fmt.Errorf("event %s has no field %q", ev.ID, field)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("field %q of event %s is not numeric", field, ev.ID)
	}
}
