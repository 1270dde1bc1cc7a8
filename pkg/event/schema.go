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

package event

import (
	"fmt"
	"time"
)

// FieldType is the declared type of a schema field.
type FieldType int

const (
	String FieldType = iota
	Int
	Float
	Bool
	Timestamp
)

func (t FieldType) String() string {
	switch t {
	case String:
		return "String"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case Bool:
		return "Bool"
	case Timestamp:
		return "Timestamp"
	default:
		return "Unknown"
	}
}

// Field is a named, typed column of the stream schema.
type Field struct {
	Name string
	Type FieldType
}

// Schema describes the shape of the records a source produces. TimeField names
// the designated event-time field; it must be declared as Timestamp.
type Schema struct {
	Fields    []Field
	TimeField string
}

// NewSchema returns a schema over the given fields with timeField designated as
// the event-time field.
func NewSchema(fields []Field, timeField string) (*Schema, error) {
	var found bool
	for _, f := range fields {
		if f.Name == timeField {
			if f.Type != Timestamp {
				return nil, fmt.Errorf("event-time field %q must be of type Timestamp, got %s", timeField, f.Type)
			}
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("event-time field %q is not part of the schema", timeField)
	}
	return &Schema{Fields: fields, TimeField: timeField}, nil
}

// Validate checks an event against the schema. A violation is reported as a
// MalformedEventErr; the caller drops the event and continues.
func (s *Schema) Validate(ev *Event) error {
	for _, f := range s.Fields {
		v, ok := ev.Fields[f.Name]
		if !ok {
			return MalformedEventErr{StreamID: ev.StreamID, ID: ev.ID, Message: fmt.Sprintf("missing field %q", f.Name)}
		}
		if !typeMatches(f.Type, v) {
			return MalformedEventErr{StreamID: ev.StreamID, ID: ev.ID, Message: fmt.Sprintf("field %q is not a %s", f.Name, f.Type)}
		}
	}
	if ev.EventTime.IsZero() {
		return MalformedEventErr{StreamID: ev.StreamID, ID: ev.ID, Message: "event time is not set"}
	}
	return nil
}

func typeMatches(t FieldType, v interface{}) bool {
	switch t {
	case String:
		_, ok := v.(string)
		return ok
	case Int:
		_, ok := v.(int64)
		return ok
	case Float:
		_, ok := v.(float64)
		return ok
	case Bool:
		_, ok := v.(bool)
		return ok
	case Timestamp:
		_, ok := v.(time.Time)
		return ok
	default:
		return false
	}
}

// MalformedEventErr is returned when a record does not match the stream schema.
type MalformedEventErr struct {
	StreamID string
	ID       string
	Message  string
}

func (e MalformedEventErr) Error() string {
	return fmt.Sprintf("(%s/%s) malformed event: %s", e.StreamID, e.ID, e.Message)
}
