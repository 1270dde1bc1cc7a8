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

package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/tributary-io/tributary/pkg/buffer"
	"github.com/tributary-io/tributary/pkg/event"
	"github.com/tributary-io/tributary/pkg/metrics"
	"github.com/tributary-io/tributary/pkg/shared/logging"
)

// LineSource reads newline-delimited JSON records from a reader, decodes them
// against the stream schema and serves them through a bounded buffer. The pump
// goroutine blocks on the buffer when the pipeline falls behind, so
// backpressure propagates all the way to the reader. Records that fail to
// decode are dropped with a diagnostic; the stream continues.
type LineSource struct {
	name    string
	buffer  *buffer.InMemoryBuffer
	decoder *event.Decoder
	cancel  context.CancelFunc
	done    chan struct{}
	log     *zap.SugaredLogger
}

var _ Sourcer = (*LineSource)(nil)

// NewLineSource starts a line source over r with the given buffer capacity.
func NewLineSource(ctx context.Context, name string, r io.Reader, decoder *event.Decoder, capacity int64, opts ...buffer.Option) *LineSource {
	pumpCtx, cancel := context.WithCancel(ctx)
	ls := &LineSource{
		name:    name,
		buffer:  buffer.NewInMemoryBuffer(name, capacity, opts...),
		decoder: decoder,
		cancel:  cancel,
		done:    make(chan struct{}),
		log:     logging.FromContext(ctx).With("streamId", name),
	}
	go ls.pump(pumpCtx, r)
	return ls
}

func (ls *LineSource) pump(ctx context.Context, r io.Reader) {
	defer close(ls.done)
	defer ls.buffer.CloseOfBook()

	scanner := bufio.NewScanner(r)
	var lineNo int64
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		ev, err := ls.decoder.Decode(fmt.Sprintf("%s-%d", ls.name, lineNo), raw)
		if err != nil {
			ls.log.Warnw("malformed_event_dropped", zap.Int64("line", lineNo), zap.Error(err))
			malformedEvents.With(map[string]string{metrics.LabelStream: ls.name}).Inc()
			continue
		}
		if err := ls.buffer.Write(ctx, ev); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, buffer.ErrClosed) {
				return
			}
			ls.log.Errorw("Failed to write event to buffer", zap.Error(err))
			return
		}
	}
	if err := scanner.Err(); err != nil {
		ls.log.Errorw("Failed to read source", zap.Error(err))
	}
}

func (ls *LineSource) GetName() string {
	return ls.name
}

func (ls *LineSource) Read(ctx context.Context, count int64) ([]*event.Event, bool, error) {
	return ls.buffer.Read(ctx, count)
}

// Close stops the pump and waits for it to exit.
func (ls *LineSource) Close() error {
	ls.cancel()
	<-ls.done
	return ls.buffer.Close()
}
