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

/* Package buffer is the in memory bounded ring buffer between an event
producer and the pipeline reading it. It is the backpressure boundary: once
the buffer is full, Write blocks until the reader drains a slot. The buffer
never drops and never reorders; a slow consumer only ever delays upstream
admission. The locking implementation is very coarse.
*/
package buffer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tributary-io/tributary/pkg/event"
	"github.com/tributary-io/tributary/pkg/metrics"
)

// InMemoryBuffer is a bounded ring buffer of events.
type InMemoryBuffer struct {
	name     string
	size     int64
	buffer   []elem
	writeIdx int64
	readIdx  int64
	cob      bool // close of book, no writes accepted after this
	options  *options
	rwlock   *sync.RWMutex
}

// elem is the element stored in the buffer
type elem struct {
	event *event.Event
	dirty bool
}

// ErrClosed is returned for writes after CloseOfBook.
var ErrClosed = errors.New("buffer is closed for writes")

// NewInMemoryBuffer returns a new buffer with the given capacity.
func NewInMemoryBuffer(name string, size int64, opts ...Option) *InMemoryBuffer {
	bufferOptions := &options{
		readTimeout:   time.Second,
		blockInterval: time.Millisecond,
	}
	for _, o := range opts {
		o(bufferOptions)
	}

	return &InMemoryBuffer{
		name:     name,
		size:     size,
		buffer:   make([]elem, size),
		writeIdx: int64(0),
		readIdx:  int64(0),
		rwlock:   new(sync.RWMutex),
		options:  bufferOptions,
	}
}

// Stringer
func (b *InMemoryBuffer) String() string {
	b.rwlock.RLock()
	defer b.rwlock.RUnlock()
	return fmt.Sprintf("(%s) size:%d readIdx:%d writeIdx:%d", b.name, b.size, b.readIdx, b.writeIdx)
}

// GetName returns the buffer name.
func (b *InMemoryBuffer) GetName() string {
	return b.name
}

// IsFull returns whether the buffer is full.
func (b *InMemoryBuffer) IsFull() bool {
	b.rwlock.RLock()
	defer b.rwlock.RUnlock()
	return b.buffer[b.writeIdx].dirty
}

// IsEmpty returns whether the buffer is empty.
func (b *InMemoryBuffer) IsEmpty() bool {
	b.rwlock.RLock()
	defer b.rwlock.RUnlock()
	return !b.buffer[b.readIdx].dirty
}

// Pending returns the number of buffered-but-unconsumed events.
func (b *InMemoryBuffer) Pending() int64 {
	b.rwlock.RLock()
	defer b.rwlock.RUnlock()
	var n int64
	for i := int64(0); i < b.size; i++ {
		if b.buffer[i].dirty {
			n++
		}
	}
	return n
}

// Write appends one event, blocking while the buffer is full until the reader
// drains a slot or the context is done. This is the producer-side suspension
// point of the flow-control contract.
func (b *InMemoryBuffer) Write(ctx context.Context, ev *event.Event) error {
	if err := b.blockIfFull(ctx); err != nil {
		return err
	}

	b.rwlock.Lock()
	defer b.rwlock.Unlock()
	if b.cob {
		return ErrClosed
	}
	currentIdx := b.writeIdx
	b.buffer[currentIdx].event = ev
	b.buffer[currentIdx].dirty = true
	b.writeIdx = (currentIdx + 1) % b.size
	bufferedEvents.With(map[string]string{metrics.LabelBuffer: b.name}).Inc()
	return nil
}

// blockIfFull waits for a free slot.
func (b *InMemoryBuffer) blockIfFull(ctx context.Context) error {
	for {
		if !b.IsFull() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			time.Sleep(b.options.blockInterval)
		}
	}
}

// blockIfEmpty waits for data unless the book is closed.
func (b *InMemoryBuffer) blockIfEmpty(ctx context.Context) error {
	for {
		if !b.IsEmpty() || b.isClosed() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			time.Sleep(b.options.blockInterval)
		}
	}
}

// Read returns up to count events. When the buffer is empty it waits up to the
// read timeout for data and then returns what it has. eof is true once the
// book has been closed and every buffered event has been consumed.
func (b *InMemoryBuffer) Read(ctx context.Context, count int64) (events []*event.Event, eof bool, err error) {
	events = make([]*event.Event, 0, count)
	cctx, cancel := context.WithTimeout(ctx, b.options.readTimeout)
	defer cancel()
	for i := int64(0); i < count; i++ {
		// wait till we have data
		if blockErr := b.blockIfEmpty(cctx); blockErr != nil {
			if errors.Is(blockErr, context.Canceled) || errors.Is(blockErr, context.DeadlineExceeded) {
				return events, false, nil
			}
			return events, false, blockErr
		}

		b.rwlock.Lock()
		if !b.buffer[b.readIdx].dirty {
			// empty with the book closed
			b.rwlock.Unlock()
			return events, b.cob, nil
		}
		events = append(events, b.buffer[b.readIdx].event)
		b.buffer[b.readIdx].event = nil
		b.buffer[b.readIdx].dirty = false
		b.readIdx = (b.readIdx + 1) % b.size
		b.rwlock.Unlock()
		bufferedEvents.With(map[string]string{metrics.LabelBuffer: b.name}).Dec()
	}

	b.rwlock.RLock()
	eof = b.cob && !b.buffer[b.readIdx].dirty
	b.rwlock.RUnlock()
	return events, eof, nil
}

// CloseOfBook marks the end of input for a bounded stream. Writes after this
// fail; readers drain the remaining events and then observe eof.
func (b *InMemoryBuffer) CloseOfBook() {
	b.rwlock.Lock()
	defer b.rwlock.Unlock()
	b.cob = true
}

func (b *InMemoryBuffer) isClosed() bool {
	b.rwlock.RLock()
	defer b.rwlock.RUnlock()
	return b.cob
}

// Close does nothing.
func (b *InMemoryBuffer) Close() error {
	return nil
}
