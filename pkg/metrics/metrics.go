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

// Package metrics holds the prometheus label names shared by all engine
// components. The metric vectors themselves live next to the code that
// increments them.
package metrics

const (
	LabelQuery  = "query"
	LabelStream = "stream"
	LabelBuffer = "buffer"
	LabelSink   = "sink"
	LabelReason = "reason"
)
