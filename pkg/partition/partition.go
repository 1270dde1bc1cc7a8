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

// Package partition identifies a unit of aggregation state. A partition is the
// tuple {window, group-by key}; every accumulator in the state store belongs
// to exactly one partition.
package partition

import (
	"fmt"

	"github.com/tributary-io/tributary/pkg/window"
)

// ID uniquely identifies an accumulator partition.
type ID struct {
	Window window.IntervalWindow
	// Key is the composite group-by key of the partition.
	Key string
}

func (p ID) String() string {
	return fmt.Sprintf("%d-%d-%s", p.Window.Start.UnixMilli(), p.Window.End.UnixMilli(), p.Key)
}
