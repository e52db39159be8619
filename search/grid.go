// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"github.com/gorse-io/tuner/model"
)

// Enumerate the Cartesian product of a hyper-parameter grid. The first name in
// the grid varies slowest and the last name varies fastest. A grid with an empty
// value list has no configuration, while an empty grid has exactly one empty
// configuration.
func Enumerate(grid model.ParamsGrid) []model.Params {
	total := grid.NumCombinations()
	configs := make([]model.Params, 0, total)
	if total == 0 {
		return configs
	}
	indices := make([]int, len(grid))
	for {
		params := make(model.Params, len(grid))
		for i, param := range grid {
			value := param.Values[indices[i]]
			if nested, ok := value.(model.Params); ok {
				value = nested.Copy()
			}
			params[param.Name] = value
		}
		configs = append(configs, params)
		// advance the odometer from the innermost name
		i := len(grid) - 1
		for ; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(grid[i].Values) {
				break
			}
			indices[i] = 0
		}
		if i < 0 {
			return configs
		}
	}
}
