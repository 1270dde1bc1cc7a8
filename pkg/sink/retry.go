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
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/tributary-io/tributary/pkg/aggregate"
	"github.com/tributary-io/tributary/pkg/metrics"
	"github.com/tributary-io/tributary/pkg/shared/logging"
)

// ErrUnavailable marks a transient sink failure; the engine retries the write
// with backoff before giving up.
var ErrUnavailable = errors.New("sink unavailable")

// RetryingSink wraps a sink with bounded exponential-backoff retries. Once the
// retries are exhausted the error surfaces to the engine, which fails the
// query.
type RetryingSink struct {
	next    Sinker
	backoff wait.Backoff
	log     *zap.SugaredLogger
}

var _ Sinker = (*RetryingSink)(nil)

// NewRetryingSink wraps next with the given number of attempts.
func NewRetryingSink(ctx context.Context, next Sinker, attempts int) *RetryingSink {
	return &RetryingSink{
		next: next,
		backoff: wait.Backoff{
			Steps:    attempts,
			Duration: 10 * time.Millisecond,
			Factor:   1.5,
			Jitter:   0.1,
		},
		log: logging.FromContext(ctx).With("sink", next.GetName()),
	}
}

func (s *RetryingSink) GetName() string {
	return s.next.GetName()
}

func (s *RetryingSink) Write(ctx context.Context, results []aggregate.Result) error {
	var lastErr error
	attempt := 0
	err := wait.ExponentialBackoffWithContext(ctx, s.backoff, func(_ context.Context) (done bool, err error) {
		attempt++
		if lastErr = s.next.Write(ctx, results); lastErr != nil {
			s.log.Errorw("Failed to write results to sink, retrying", zap.Int("attempt", attempt), zap.Error(lastErr))
			sinkRetries.With(map[string]string{metrics.LabelSink: s.next.GetName()}).Inc()
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		if lastErr != nil {
			return fmt.Errorf("sink write failed after %d attempts: %w", attempt, lastErr)
		}
		return err
	}
	return nil
}

func (s *RetryingSink) Close() error {
	return s.next.Close()
}
