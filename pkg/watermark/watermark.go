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

// Package watermark tracks event-time progress of a stream. A watermark W
// asserts that no event with event-time < W will arrive on the stream. Each
// stream partition owns one Generator; the watermarks of the partitions of a
// query are merged by taking the minimum before any window may close.
package watermark

import (
	"math"
	"time"
)

// Watermark is the monotonically non-decreasing event-time bound of a stream.
type Watermark time.Time

// InitialWatermark is the watermark before any event has been observed.
var InitialWatermark = Watermark(time.UnixMilli(-1))

// EndOfStream is the watermark a bounded source advances to once its input is
// exhausted; it closes every remaining window.
var EndOfStream = Watermark(time.UnixMilli(math.MaxInt64 / int64(time.Millisecond)))

func (w Watermark) String() string {
	return time.Time(w).UTC().Format(time.RFC3339Nano)
}

func (w Watermark) UnixMilli() int64 {
	return time.Time(w).UnixMilli()
}

func (w Watermark) After(t time.Time) bool {
	return time.Time(w).After(t)
}

func (w Watermark) AfterWatermark(compare Watermark) bool {
	return w.After(time.Time(compare))
}

func (w Watermark) Before(t time.Time) bool {
	return time.Time(w).Before(t)
}

func (w Watermark) BeforeWatermark(compare Watermark) bool {
	return w.Before(time.Time(compare))
}
