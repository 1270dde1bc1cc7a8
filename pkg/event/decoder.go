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

	"github.com/araddon/dateparse"
	"github.com/goccy/go-json"
)

// Decoder turns raw JSON records from a source into schema-checked events.
// JSON numbers arrive as float64; integer and timestamp fields are coerced to
// the declared type before validation. Timestamps may be given as RFC3339-ish
// strings (parsed leniently) or as unix milliseconds.
type Decoder struct {
	schema   *Schema
	streamID string
}

// NewDecoder returns a decoder for the given stream and schema.
func NewDecoder(streamID string, schema *Schema) *Decoder {
	return &Decoder{schema: schema, streamID: streamID}
}

// Decode parses one raw record. The returned error is a MalformedEventErr when
// the record cannot be interpreted against the schema.
func (d *Decoder) Decode(id string, raw []byte) (*Event, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, MalformedEventErr{StreamID: d.streamID, ID: id, Message: fmt.Sprintf("invalid json: %s", err)}
	}

	ev := &Event{
		ID:       id,
		StreamID: d.streamID,
		Fields:   make(map[string]interface{}, len(d.schema.Fields)),
	}

	for _, f := range d.schema.Fields {
		v, ok := m[f.Name]
		if !ok {
			return nil, MalformedEventErr{StreamID: d.streamID, ID: id, Message: fmt.Sprintf("missing field %q", f.Name)}
		}
		cv, err := coerce(f, v)
		if err != nil {
			return nil, MalformedEventErr{StreamID: d.streamID, ID: id, Message: err.Error()}
		}
		ev.Fields[f.Name] = cv
	}

	ev.EventTime = ev.Fields[d.schema.TimeField].(time.Time)
	if err := d.schema.Validate(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func coerce(f Field, v interface{}) (interface{}, error) {
	switch f.Type {
	case String:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("field %q is not a string", f.Name)
		}
		return s, nil
	case Int:
		switch n := v.(type) {
		case float64:
			return int64(n), nil
		case int64:
			return n, nil
		}
		return nil, fmt.Errorf("field %q is not an integer", f.Name)
	case Float:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		}
		return nil, fmt.Errorf("field %q is not a number", f.Name)
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("field %q is not a bool", f.Name)
		}
		return b, nil
	case Timestamp:
		switch ts := v.(type) {
		case string:
			t, err := dateparse.ParseAny(ts)
			if err != nil {
				return nil, fmt.Errorf("field %q is not a parsable timestamp: %s", f.Name, err)
			}
			return t, nil
		case float64:
			// unix milliseconds
			return time.UnixMilli(int64(ts)), nil
		}
		return nil, fmt.Errorf("field %q is not a timestamp", f.Name)
	default:
		return nil, fmt.Errorf("field %q has unknown type", f.Name)
	}
}
