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

// Package sink receives the finalized results of closed windows. The engine
// guarantees exactly-once emission per (window, group) under non-failure
// conditions; under restart the collaborator may see a result again and is
// expected to deduplicate, which the dedup wrapper here already covers for
// the common path.
package sink

import (
	"context"
	"io"

	"github.com/tributary-io/tributary/pkg/aggregate"
)

// Sinker consumes closed-window results.
type Sinker interface {
	io.Closer
	// GetName returns the sink name.
	GetName() string
	// Write emits a batch of results. An error means none of the results can
	// be considered delivered; the engine retries the batch.
	Write(ctx context.Context, results []aggregate.Result) error
}
