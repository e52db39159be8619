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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gorse-io/tuner/model"
)

func TestEnumerate(t *testing.T) {
	grid := model.ParamsGrid{
		{Name: model.NEpochs, Values: []interface{}{20, 50, 100}},
		{Name: model.NFactors, Values: []interface{}{10, 300}},
		{Name: model.Lr, Values: []interface{}{0.005}},
	}
	configs := Enumerate(grid)
	assert.Len(t, configs, grid.NumCombinations())
	assert.Equal(t, []model.Params{
		{model.NEpochs: 20, model.NFactors: 10, model.Lr: 0.005},
		{model.NEpochs: 20, model.NFactors: 300, model.Lr: 0.005},
		{model.NEpochs: 50, model.NFactors: 10, model.Lr: 0.005},
		{model.NEpochs: 50, model.NFactors: 300, model.Lr: 0.005},
		{model.NEpochs: 100, model.NFactors: 10, model.Lr: 0.005},
		{model.NEpochs: 100, model.NFactors: 300, model.Lr: 0.005},
	}, configs)
}

func TestEnumerate_Size(t *testing.T) {
	for _, sizes := range [][]int{{1}, {3, 3, 3}, {2, 5}, {4, 1, 2, 3}} {
		grid := make(model.ParamsGrid, len(sizes))
		expected := 1
		for i, size := range sizes {
			grid[i] = model.ParamValues{Name: model.ParamName(string(rune('a' + i))), Values: make([]interface{}, size)}
			for j := range grid[i].Values {
				grid[i].Values[j] = j
			}
			expected *= size
		}
		assert.Len(t, Enumerate(grid), expected)
	}
}

func TestEnumerate_Empty(t *testing.T) {
	// an empty value list has no configuration
	assert.Empty(t, Enumerate(model.ParamsGrid{
		{Name: model.NEpochs, Values: []interface{}{1, 2}},
		{Name: model.NFactors, Values: []interface{}{}},
	}))
	// an empty grid has one empty configuration
	assert.Equal(t, []model.Params{{}}, Enumerate(model.ParamsGrid{}))
	assert.Equal(t, []model.Params{{}}, Enumerate(nil))
}

func TestEnumerate_Nested(t *testing.T) {
	options := model.Params{model.Method: "als", model.NEpochs: 5}
	configs := Enumerate(model.ParamsGrid{
		{Name: model.BaselineOpts, Values: []interface{}{options}},
		{Name: model.RandomState, Values: []interface{}{0, 1}},
	})
	assert.Len(t, configs, 2)
	// configurations are independent copies
	configs[0].GetParams(model.BaselineOpts)[model.Method] = "sgd"
	assert.Equal(t, "als", configs[1].GetParams(model.BaselineOpts)[model.Method])
	assert.Equal(t, "als", options[model.Method])
}
