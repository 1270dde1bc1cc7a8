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

// Package tumbling implements tumbling windows: fixed-size, contiguous,
// non-overlapping intervals that tile the time axis. Every event belongs to
// exactly one tumbling window for a given length.
package tumbling

import (
	"time"

	"github.com/tributary-io/tributary/pkg/window"
)

// Tumbling assigns events to fixed-length non-overlapping windows.
type Tumbling struct {
	// Length is the temporal length of the window.
	Length time.Duration
}

var _ window.Assigner = (*Tumbling)(nil)

// NewTumbling returns a tumbling window assigner of the given length.
func NewTumbling(length time.Duration) *Tumbling {
	return &Tumbling{Length: length}
}

func (t *Tumbling) Strategy() window.Strategy {
	return window.Tumbling
}

// AssignWindows assigns a window for the given eventTime.
func (t *Tumbling) AssignWindows(eventTime time.Time) []window.IntervalWindow {
	start := eventTime.Truncate(t.Length)
	end := start.Add(t.Length)

	// Assignment follows a left inclusive and right exclusive principle. Since
	// we use truncate here, any element on the boundary automatically falls in
	// to the window to the right of the boundary.
	return []window.IntervalWindow{{Start: start, End: end}}
}
