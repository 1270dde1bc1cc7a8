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

package aggregate

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tributary-io/tributary/pkg/watermark"
	"github.com/tributary-io/tributary/pkg/window"
)

func newCountSumFactory() ([]Aggregator, error) {
	count, err := New(Count, "")
	if err != nil {
		return nil, err
	}
	sum, err := New(Sum, "amount")
	if err != nil {
		return nil, err
	}
	return []Aggregator{count, sum}, nil
}

func testWindow(base time.Time, minutes int) window.IntervalWindow {
	return window.IntervalWindow{Start: base.Add(time.Duration(minutes) * time.Minute), End: base.Add(time.Duration(minutes+1) * time.Minute)}
}

func TestStore_FoldAndClose(t *testing.T) {
	loc, _ := time.LoadLocation("UTC")
	baseTime := time.Unix(1651129200, 0).In(loc)
	ctx := context.Background()

	store := NewStore(ctx, newCountSumFactory, WithValueNames([]string{"count", "total"}))

	w0 := testWindow(baseTime, 0)
	w1 := testWindow(baseTime, 1)

	assert.NoError(t, store.Fold(w0, "eu", numEvent(10)))
	assert.NoError(t, store.Fold(w0, "eu", numEvent(5)))
	assert.NoError(t, store.Fold(w0, "us", numEvent(7)))
	assert.NoError(t, store.Fold(w1, "eu", numEvent(1)))
	assert.Equal(t, 3, store.OpenAccumulators())

	// watermark before w0 end closes nothing
	assert.Empty(t, store.CloseWindowsUpTo(watermark.Watermark(w0.End.Add(-time.Millisecond))))
	assert.Equal(t, 3, store.OpenAccumulators())

	// all groups of w0 are emitted together, exactly once
	results := store.CloseWindowsUpTo(watermark.Watermark(w0.End))
	assert.Len(t, results, 2)
	byGroup := map[string]Result{}
	for _, r := range results {
		assert.Equal(t, w0, r.ID.Window)
		byGroup[r.ID.Key] = r
	}
	assert.Equal(t, int64(2), byGroup["eu"].Values[0].Value)
	assert.Equal(t, "count", byGroup["eu"].Values[0].Name)
	assert.Equal(t, float64(15), byGroup["eu"].Values[1].Value)
	assert.Equal(t, "total", byGroup["eu"].Values[1].Name)
	assert.Equal(t, int64(1), byGroup["us"].Values[0].Value)

	// second close on the same watermark emits nothing again
	assert.Empty(t, store.CloseWindowsUpTo(watermark.Watermark(w0.End)))
	assert.Equal(t, 1, store.OpenAccumulators())
}

func TestStore_RejectsPostCloseFold(t *testing.T) {
	loc, _ := time.LoadLocation("UTC")
	baseTime := time.Unix(1651129200, 0).In(loc)
	ctx := context.Background()

	store := NewStore(ctx, newCountSumFactory)
	w0 := testWindow(baseTime, 0)

	assert.NoError(t, store.Fold(w0, "eu", numEvent(1)))
	store.CloseWindowsUpTo(watermark.Watermark(w0.End))

	// a fold into the closed window must not reopen it
	err := store.Fold(w0, "eu", numEvent(2))
	assert.ErrorIs(t, err, ErrClosedWindowFold)
	assert.Equal(t, 0, store.OpenAccumulators())
}

func TestStore_StateOverflow(t *testing.T) {
	loc, _ := time.LoadLocation("UTC")
	baseTime := time.Unix(1651129200, 0).In(loc)
	ctx := context.Background()

	store := NewStore(ctx, newCountSumFactory, WithMaxAccumulators(2))
	w0 := testWindow(baseTime, 0)

	assert.NoError(t, store.Fold(w0, "a", numEvent(1)))
	assert.NoError(t, store.Fold(w0, "b", numEvent(1)))
	// existing accumulators can still be updated
	assert.NoError(t, store.Fold(w0, "a", numEvent(1)))
	// a third group overflows the configured bound
	assert.ErrorIs(t, store.Fold(w0, "c", numEvent(1)), ErrStateOverflow)
}

// replaying the same non-late event set in a different arrival order yields
// identical final aggregates per window.
func TestStore_OrderIndependence(t *testing.T) {
	loc, _ := time.LoadLocation("UTC")
	baseTime := time.Unix(1651129200, 0).In(loc)
	ctx := context.Background()

	w0 := testWindow(baseTime, 0)
	amounts := []float64{4, 8, 15, 16, 23, 42}

	run := func(order []int) map[string][]Value {
		store := NewStore(ctx, newCountSumFactory, WithValueNames([]string{"count", "total"}))
		for _, i := range order {
			assert.NoError(t, store.Fold(w0, "eu", numEvent(amounts[i])))
		}
		out := map[string][]Value{}
		for _, r := range store.CloseWindowsUpTo(watermark.Watermark(w0.End)) {
			out[r.ID.Key] = r.Values
		}
		return out
	}

	order := []int{0, 1, 2, 3, 4, 5}
	want := run(order)
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 5; i++ {
		r.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })
		assert.Equal(t, want, run(order))
	}
}
