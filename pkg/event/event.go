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

// Package event defines the record that flows through a query pipeline. An Event
// is immutable once it has been emitted by a source; stages downstream of the
// source only ever read it.
package event

import (
	"fmt"
	"strings"
	"time"
)

// Event is a timestamped record read from a stream. EventTime is the event time
// embedded in the payload, not the wall-clock time of arrival.
type Event struct {
	// ID uniquely identifies the event within its stream, usually derived from
	// the source offset.
	ID string
	// StreamID identifies the stream (or stream partition) the event was read from.
	StreamID string
	// EventTime is the designated event-time field of the record.
	EventTime time.Time
	// Fields holds the typed field values of the record, keyed by field name.
	Fields map[string]interface{}
}

// Field returns the value of the named field.
func (e *Event) Field(name string) (interface{}, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

// GroupKey builds the composite group-by key for the event by joining the
// string form of the named fields. Key order follows the order of names, so the
// planner's ordered group-by list produces a stable key.
func (e *Event) GroupKey(names []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, 0, len(names))
	for _, n := range names {
		v, ok := e.Fields[n]
		if !ok {
			parts = append(parts, "")
			continue
		}
		parts = append(parts, fmt.Sprintf("%v", v))
	}
	return strings.Join(parts, keyDelimiter)
}

// keyDelimiter separates the group-by fields inside a composite key.
const keyDelimiter = ":"

func (e *Event) String() string {
	return fmt.Sprintf("(%s/%s) time:%s fields:%d", e.StreamID, e.ID, e.EventTime.Format(time.RFC3339Nano), len(e.Fields))
}
