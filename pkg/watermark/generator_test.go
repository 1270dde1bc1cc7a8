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

package watermark

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tributary-io/tributary/pkg/event"
)

func tev(t time.Time) *event.Event {
	return &event.Event{ID: "test", StreamID: "p0", EventTime: t}
}

func TestGenerator_Observe(t *testing.T) {
	loc, _ := time.LoadLocation("UTC")
	baseTime := time.Unix(1651129200, 0).In(loc)

	g := NewGenerator(context.Background(), "p0", 2*time.Second)
	assert.Equal(t, InitialWatermark, g.Current())

	// first event establishes the watermark and can never be late
	wm, late := g.Observe(tev(baseTime.Add(10 * time.Second)))
	assert.False(t, late)
	assert.Equal(t, baseTime.Add(8*time.Second), time.Time(wm))

	// within the lag bound, behind maxSeen but not behind the watermark
	wm, late = g.Observe(tev(baseTime.Add(9 * time.Second)))
	assert.False(t, late)
	assert.Equal(t, baseTime.Add(8*time.Second), time.Time(wm))

	// behind the watermark as it stood before the event
	wm, late = g.Observe(tev(baseTime.Add(5 * time.Second)))
	assert.True(t, late)
	assert.Equal(t, baseTime.Add(8*time.Second), time.Time(wm))

	// progress
	wm, late = g.Observe(tev(baseTime.Add(20 * time.Second)))
	assert.False(t, late)
	assert.Equal(t, baseTime.Add(18*time.Second), time.Time(wm))
}

func TestGenerator_Monotonic(t *testing.T) {
	loc, _ := time.LoadLocation("UTC")
	baseTime := time.Unix(1651129200, 0).In(loc)

	g := NewGenerator(context.Background(), "p0", 500*time.Millisecond)

	offsets := []time.Duration{0, 3 * time.Second, 1 * time.Second, 5 * time.Second, 4 * time.Second, 2 * time.Second, 10 * time.Second}
	prev := InitialWatermark
	for _, off := range offsets {
		wm, _ := g.Observe(tev(baseTime.Add(off)))
		assert.False(t, wm.BeforeWatermark(prev), "watermark regressed from %s to %s", prev, wm)
		prev = wm
	}
}

func TestGenerator_LatenessScenario(t *testing.T) {
	// event at 23:59:59.5 followed by one at 23:59:58.9 with a 500ms lag:
	// the second is 600ms behind the watermark and must be dropped
	loc, _ := time.LoadLocation("UTC")
	day := time.Date(2022, 4, 28, 23, 59, 0, 0, loc)

	g := NewGenerator(context.Background(), "p0", 500*time.Millisecond)

	wm, late := g.Observe(tev(day.Add(59*time.Second + 500*time.Millisecond)))
	assert.False(t, late)
	assert.Equal(t, day.Add(59*time.Second), time.Time(wm))

	wm, late = g.Observe(tev(day.Add(58*time.Second + 900*time.Millisecond)))
	assert.True(t, late)
	assert.Equal(t, day.Add(59*time.Second), time.Time(wm))
}

func TestGenerator_CloseOfStream(t *testing.T) {
	loc, _ := time.LoadLocation("UTC")
	baseTime := time.Unix(1651129200, 0).In(loc)

	g := NewGenerator(context.Background(), "p0", time.Second)
	g.Observe(tev(baseTime))
	assert.Equal(t, EndOfStream, g.CloseOfStream())
	assert.Equal(t, EndOfStream, g.Current())
}
