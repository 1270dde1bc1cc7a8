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

// Package sliding implements sliding windows: fixed-length windows opened
// every slide interval. Windows overlap when the slide is shorter than the
// length, so one event may belong to several windows.
package sliding

import (
	"time"

	"github.com/tributary-io/tributary/pkg/window"
)

// Sliding assigns events to overlapping fixed-length windows.
type Sliding struct {
	// Length is the temporal length of the window.
	Length time.Duration
	// Slide is the interval at which new windows are opened.
	Slide time.Duration
}

var _ window.Assigner = (*Sliding)(nil)

// NewSliding returns a sliding window assigner.
func NewSliding(length time.Duration, slide time.Duration) *Sliding {
	return &Sliding{Length: length, Slide: slide}
}

func (s *Sliding) Strategy() window.Strategy {
	return window.Sliding
}

// AssignWindows returns the set of windows that contain the given eventTime.
func (s *Sliding) AssignWindows(eventTime time.Time) []window.IntervalWindow {
	windows := make([]window.IntervalWindow, 0)

	// use the highest integer multiple of the slide length which is not after
	// the eventTime as the start of the most recent window; the earlier
	// overlapping windows are derived from it by walking back one slide at a
	// time while the eventTime is still inside the window.
	startTime := time.UnixMilli((eventTime.UnixMilli() / s.Slide.Milliseconds()) * s.Slide.Milliseconds())
	endTime := startTime.Add(s.Length)

	for !startTime.After(eventTime) && endTime.After(eventTime) {
		windows = append(windows, window.IntervalWindow{Start: startTime, End: endTime})
		startTime = startTime.Add(-s.Slide)
		endTime = endTime.Add(-s.Slide)
	}

	return windows
}
