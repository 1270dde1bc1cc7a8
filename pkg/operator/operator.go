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

// Package operator holds the stateless transforms of a query plan: filter and
// projection. Both are pure functions over a single event; expressions are
// compiled once at query start and evaluated per event against the event's
// fields.
package operator

import (
	"fmt"

	"github.com/Masterminds/sprig/v3"
	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"

	"github.com/tributary-io/tributary/pkg/event"
)

var sprigFuncMap = sprig.GenericFuncMap()

// Filter drops events for which the predicate expression is false. The
// expression sees the event's fields by name, e.g. `amount > 100 && region ==
// "eu"`, plus the sprig function map under `sprig`.
type Filter struct {
	expression string
	program    *vm.Program
}

// NewFilter compiles the predicate expression.
func NewFilter(expression string) (*Filter, error) {
	program, err := expr.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("unable to compile filter expression '%s': %w", expression, err)
	}
	return &Filter{expression: expression, program: program}, nil
}

// Apply evaluates the predicate for one event.
func (f *Filter) Apply(ev *event.Event) (bool, error) {
	result, err := expr.Run(f.program, envOf(ev))
	if err != nil {
		return false, fmt.Errorf("unable to evaluate expression '%s': %s", f.expression, err)
	}
	resultBool, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("unable to cast expression result '%v' to bool", result)
	}
	return resultBool, nil
}

// Projection keeps only the named fields of an event. The event-time field is
// always carried, whether projected or not, since watermarking already
// happened upstream and grouping may still need it.
type Projection struct {
	fields []string
}

// NewProjection returns a projection over the given field names.
func NewProjection(fields []string) *Projection {
	return &Projection{fields: fields}
}

// Apply returns a copy of the event narrowed to the projected fields. The
// input event is not modified.
func (p *Projection) Apply(ev *event.Event) *event.Event {
	out := &event.Event{
		ID:        ev.ID,
		StreamID:  ev.StreamID,
		EventTime: ev.EventTime,
		Fields:    make(map[string]interface{}, len(p.fields)),
	}
	for _, name := range p.fields {
		if v, ok := ev.Fields[name]; ok {
			out.Fields[name] = v
		}
	}
	return out
}

func envOf(ev *event.Event) map[string]interface{} {
	env := make(map[string]interface{}, len(ev.Fields)+2)
	for k, v := range ev.Fields {
		env[k] = v
	}
	env["sprig"] = sprigFuncMap
	env["eventTime"] = ev.EventTime
	return env
}
