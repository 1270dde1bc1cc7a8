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

// Package source defines where a query pipeline reads its events from. The
// engine only sees the Sourcer interface; connectors to real systems live
// outside the core and adapt to it.
package source

import (
	"context"
	"io"

	"github.com/tributary-io/tributary/pkg/event"
)

// Sourcer is one partition of an event stream. Read returns a batch of events
// in arrival order; eof turns true once a bounded source has been fully
// consumed. Read blocks (up to the implementation's read timeout) when no data
// is available, and the write side of a buffered source blocks when the
// buffer is full, which is how backpressure reaches the producer.
type Sourcer interface {
	io.Closer
	// GetName returns the stream (partition) id of this source.
	GetName() string
	// Read reads a chunk of events. A short or empty batch does not imply
	// eof; only the returned flag does.
	Read(ctx context.Context, count int64) (events []*event.Event, eof bool, err error)
}
