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

package buffer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"

	"github.com/tributary-io/tributary/pkg/event"
)

func testEvent(i int) *event.Event {
	return &event.Event{ID: fmt.Sprintf("ev-%d", i), StreamID: "p0", EventTime: time.UnixMilli(int64(i))}
}

func TestBuffer_WriteRead(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBuffer("test", 8)

	assert.True(t, b.IsEmpty())
	for i := 0; i < 5; i++ {
		assert.NoError(t, b.Write(ctx, testEvent(i)))
	}
	assert.Equal(t, int64(5), b.Pending())

	events, eof, err := b.Read(ctx, 3)
	assert.NoError(t, err)
	assert.False(t, eof)
	assert.Len(t, events, 3)
	assert.Equal(t, "ev-0", events[0].ID)
	assert.Equal(t, "ev-2", events[2].ID)
	assert.Equal(t, int64(2), b.Pending())
}

// a full buffer suspends the producer and resumes it as soon as the consumer
// drains a slot; nothing is dropped or reordered.
func TestBuffer_BackpressureBlocksProducer(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBuffer("test", 10, WithBlockInterval(time.Millisecond))

	written := atomic.NewInt64(0)
	go func() {
		for i := 0; i < 20; i++ {
			if err := b.Write(ctx, testEvent(i)); err != nil {
				return
			}
			written.Inc()
		}
	}()

	// the producer fills the buffer and then blocks
	assert.Eventually(t, func() bool { return written.Load() == 10 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(10), written.Load())
	assert.True(t, b.IsFull())

	// draining one slot unblocks exactly one write
	events, _, err := b.Read(ctx, 1)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Eventually(t, func() bool { return written.Load() == 11 }, time.Second, time.Millisecond)

	// drain the rest; order is preserved
	var all []*event.Event
	all = append(all, events...)
	for len(all) < 20 {
		batch, _, err := b.Read(ctx, 5)
		assert.NoError(t, err)
		all = append(all, batch...)
	}
	for i, ev := range all {
		assert.Equal(t, fmt.Sprintf("ev-%d", i), ev.ID)
	}
}

func TestBuffer_CloseOfBook(t *testing.T) {
	ctx := context.Background()
	b := NewInMemoryBuffer("test", 8, WithReadTimeout(10*time.Millisecond))

	assert.NoError(t, b.Write(ctx, testEvent(0)))
	b.CloseOfBook()

	assert.ErrorIs(t, b.Write(ctx, testEvent(1)), ErrClosed)

	events, eof, err := b.Read(ctx, 8)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.True(t, eof)

	// subsequent reads stay at eof
	events, eof, err = b.Read(ctx, 8)
	assert.NoError(t, err)
	assert.Empty(t, events)
	assert.True(t, eof)
}

func TestBuffer_WriteUnblocksOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := NewInMemoryBuffer("test", 1, WithBlockInterval(time.Millisecond))

	assert.NoError(t, b.Write(ctx, testEvent(0)))

	errCh := make(chan error, 1)
	go func() {
		errCh <- b.Write(ctx, testEvent(1))
	}()
	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("blocked write did not observe cancellation")
	}
}
