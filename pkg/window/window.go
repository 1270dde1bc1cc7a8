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

// Package window maps events to the time intervals they are aggregated under.
// An Assigner is a pure function from event time to a set of interval windows;
// the windowing strategies (tumbling, sliding) are its implementations.
package window

import (
	"fmt"
	"time"
)

// IntervalWindow is a half-open event-time interval [Start, End). Assignment
// is left inclusive and right exclusive, so an event exactly on a boundary
// falls into the window to the right of the boundary.
type IntervalWindow struct {
	Start time.Time
	End   time.Time
}

// Contains returns whether the event time falls inside the window.
func (iw IntervalWindow) Contains(eventTime time.Time) bool {
	return !eventTime.Before(iw.Start) && eventTime.Before(iw.End)
}

// ClosedBy returns whether the window is eligible to close and emit under the
// given watermark, i.e. the watermark has reached the window end.
func (iw IntervalWindow) ClosedBy(wm time.Time) bool {
	return !wm.Before(iw.End)
}

func (iw IntervalWindow) String() string {
	return fmt.Sprintf("[%s,%s)", iw.Start.UTC().Format(time.RFC3339Nano), iw.End.UTC().Format(time.RFC3339Nano))
}

// Strategy is the windowing strategy of a query.
type Strategy int

const (
	Tumbling Strategy = iota
	Sliding
	Session
)

func (s Strategy) String() string {
	switch s {
	case Tumbling:
		return "Tumbling"
	case Sliding:
		return "Sliding"
	case Session:
		return "Session"
	default:
		return "Unknown"
	}
}

// Assigner maps an event time to the windows the event belongs to. Assigners
// are pure and keep no state.
//
// For tumbling windows the returned slice always has exactly one element; a
// sliding assigner returns one window per overlapping slide. The slice form is
// the extension point for strategies that need more than one window (or, for
// session windows, dynamically merged ones).
type Assigner interface {
	// Strategy returns the windowing strategy of the assigner.
	Strategy() Strategy
	// AssignWindows returns the windows the given event time belongs to.
	AssignWindows(eventTime time.Time) []IntervalWindow
}
