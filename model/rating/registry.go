// Copyright 2021 gorse Project Authors
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

package rating

import (
	"github.com/juju/errors"
	"github.com/samber/lo"

	"github.com/gorse-io/tuner/model"
)

// Algorithm describes a searchable rating model.
type Algorithm struct {
	Name    string
	New     Creator
	Columns []model.ParamName // hyper-parameters shown in reports
}

// Grid returns the default search grid of the algorithm.
func (a Algorithm) Grid() model.ParamsGrid {
	return a.New(nil).GetParamsGrid()
}

var algorithms = []Algorithm{
	{
		Name:    "svd",
		New:     func(params model.Params) Model { return NewSVD(params) },
		Columns: []model.ParamName{model.NEpochs, model.NFactors},
	},
	{
		Name:    "coclustering",
		New:     func(params model.Params) Model { return NewCoClustering(params) },
		Columns: []model.ParamName{model.NUserClusters, model.NItemClusters, model.NEpochs},
	},
	{
		Name:    "baseline",
		New:     func(params model.Params) Model { return NewBaseline(params) },
		Columns: []model.ParamName{model.Method, model.NEpochs},
	},
}

// GetAlgorithm finds an algorithm by name.
func GetAlgorithm(name string) (Algorithm, error) {
	algorithm, ok := lo.Find(algorithms, func(a Algorithm) bool {
		return a.Name == name
	})
	if !ok {
		return Algorithm{}, errors.NotFoundf("algorithm %q", name)
	}
	return algorithm, nil
}

// ListAlgorithms returns names of all algorithms.
func ListAlgorithms() []string {
	return lo.Map(algorithms, func(a Algorithm, _ int) string {
		return a.Name
	})
}
