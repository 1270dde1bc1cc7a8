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

package tumbling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tributary-io/tributary/pkg/window"
)

func TestTumbling_AssignWindows(t *testing.T) {
	loc, _ := time.LoadLocation("UTC")
	baseTime := time.Unix(1651129201, 0).In(loc)

	tests := []struct {
		name      string
		length    time.Duration
		eventTime time.Time
		want      []window.IntervalWindow
	}{
		{
			name:      "minute",
			length:    time.Minute,
			eventTime: baseTime,
			want: []window.IntervalWindow{
				{
					Start: time.Unix(1651129200, 0).In(loc),
					End:   time.Unix(1651129260, 0).In(loc),
				},
			},
		},
		{
			name:      "hour",
			length:    time.Hour,
			eventTime: baseTime,
			want: []window.IntervalWindow{
				{
					Start: time.Unix(1651129200, 0).In(loc),
					End:   time.Unix(1651129200+3600, 0).In(loc),
				},
			},
		},
		{
			name:      "30_second",
			length:    time.Second * 30,
			eventTime: baseTime,
			want: []window.IntervalWindow{
				{
					Start: time.Unix(1651129200, 0).In(loc),
					End:   time.Unix(1651129230, 0).In(loc),
				},
			},
		},
		{
			name:      "on_boundary_goes_right",
			length:    time.Minute,
			eventTime: time.Unix(1651129260, 0).In(loc),
			want: []window.IntervalWindow{
				{
					Start: time.Unix(1651129260, 0).In(loc),
					End:   time.Unix(1651129320, 0).In(loc),
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewTumbling(tt.length).AssignWindows(tt.eventTime)
			assert.Equal(t, tt.want, got)
		})
	}
}

// windows of a given length partition the time axis: every event time falls in
// exactly one window, and adjacent windows share a boundary.
func TestTumbling_TilesTimeAxis(t *testing.T) {
	loc, _ := time.LoadLocation("UTC")
	baseTime := time.Unix(1651129200, 0).In(loc)
	length := time.Minute

	assigner := NewTumbling(length)

	var prev window.IntervalWindow
	for off := time.Duration(0); off < 10*time.Minute; off += 7 * time.Second {
		eventTime := baseTime.Add(off)
		windows := assigner.AssignWindows(eventTime)

		assert.Len(t, windows, 1)
		w := windows[0]
		assert.True(t, w.Contains(eventTime), "window %s does not contain %s", w, eventTime)
		assert.Equal(t, length, w.End.Sub(w.Start))

		if !prev.Start.IsZero() && w != prev {
			// contiguous, no gap and no overlap
			assert.Equal(t, prev.End, w.Start)
		}
		prev = w
	}
}
