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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testDecoder(t *testing.T) *Decoder {
	t.Helper()
	s, err := NewSchema([]Field{
		{Name: "ts", Type: Timestamp},
		{Name: "amount", Type: Float},
		{Name: "count", Type: Int},
		{Name: "region", Type: String},
		{Name: "priority", Type: Bool},
	}, "ts")
	assert.NoError(t, err)
	return NewDecoder("payments", s)
}

func TestDecoder_Decode(t *testing.T) {
	d := testDecoder(t)

	ev, err := d.Decode("ev-1", []byte(`{"ts":"2022-04-28T07:00:00Z","amount":250.5,"count":3,"region":"eu","priority":true}`))
	assert.NoError(t, err)
	assert.Equal(t, "ev-1", ev.ID)
	assert.Equal(t, "payments", ev.StreamID)
	assert.True(t, ev.EventTime.Equal(time.Date(2022, 4, 28, 7, 0, 0, 0, time.UTC)))
	assert.Equal(t, float64(250.5), ev.Fields["amount"])
	assert.Equal(t, int64(3), ev.Fields["count"])
	assert.Equal(t, "eu", ev.Fields["region"])
	assert.Equal(t, true, ev.Fields["priority"])
}

func TestDecoder_UnixMillisTimestamp(t *testing.T) {
	d := testDecoder(t)

	ev, err := d.Decode("ev-2", []byte(`{"ts":1651129200000,"amount":1,"count":1,"region":"eu","priority":false}`))
	assert.NoError(t, err)
	assert.True(t, ev.EventTime.Equal(time.UnixMilli(1651129200000)))
}

func TestDecoder_Malformed(t *testing.T) {
	d := testDecoder(t)

	tests := []struct {
		name string
		raw  string
	}{
		{name: "invalid json", raw: `{"ts":`},
		{name: "missing field", raw: `{"ts":"2022-04-28T07:00:00Z","amount":1,"count":1,"region":"eu"}`},
		{name: "wrong type", raw: `{"ts":"2022-04-28T07:00:00Z","amount":"x","count":1,"region":"eu","priority":true}`},
		{name: "bad timestamp", raw: `{"ts":"not a time","amount":1,"count":1,"region":"eu","priority":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Decode("ev-x", []byte(tt.raw))
			var malformed MalformedEventErr
			assert.ErrorAs(t, err, &malformed)
			assert.Equal(t, "payments", malformed.StreamID)
		})
	}
}
