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

package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/tributary-io/tributary/pkg/aggregate"
	"github.com/tributary-io/tributary/pkg/shared/logging"
)

// LogSink writes every result to the log. Useful for development and as the
// default sink of the CLI runner.
type LogSink struct {
	name string
	log  *zap.SugaredLogger
}

var _ Sinker = (*LogSink)(nil)

// NewLogSink returns a sink that logs results.
func NewLogSink(ctx context.Context, name string) *LogSink {
	return &LogSink{
		name: name,
		log:  logging.FromContext(ctx).With("sink", name),
	}
}

func (s *LogSink) GetName() string {
	return s.name
}

func (s *LogSink) Write(_ context.Context, results []aggregate.Result) error {
	for _, r := range results {
		fields := []interface{}{
			"windowStart", r.ID.Window.Start,
			"windowEnd", r.ID.Window.End,
			"groupKey", r.ID.Key,
		}
		for _, v := range r.Values {
			fields = append(fields, v.Name, v.Value)
		}
		s.log.Infow("window_result", fields...)
	}
	return nil
}

func (s *LogSink) Close() error {
	return nil
}
