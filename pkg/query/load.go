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

package query

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads a query spec from a YAML or JSON file, applies defaults and
// validates it.
func Load(path string) (*Spec, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read query spec %q: %w", path, err)
	}
	var spec Spec
	if err := v.Unmarshal(&spec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal query spec %q: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query spec %q: %w", path, err)
	}
	return &spec, nil
}
