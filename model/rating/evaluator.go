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
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/gorse-io/tuner/dataset"
)

// Score of a rating model on a test set.
type Score struct {
	RMSE float64
	MAE  float64
}

// Evaluate a rating model on a test set. The score of an empty test set is NaN.
func Evaluate(m Model, testSet *dataset.Dataset) Score {
	if testSet.Count() == 0 {
		return Score{RMSE: math.NaN(), MAE: math.NaN()}
	}
	diff := make([]float64, testSet.Count())
	for i := range diff {
		userIndex, itemIndex, value := testSet.Get(i)
		diff[i] = m.internalPredict(userIndex, itemIndex) - value
	}
	return Score{
		RMSE: RMSE(diff),
		MAE:  MAE(diff),
	}
}

// RMSE is the root mean square of prediction errors.
func RMSE(diff []float64) float64 {
	return math.Sqrt(floats.Dot(diff, diff) / float64(len(diff)))
}

// MAE is the mean absolute prediction error.
func MAE(diff []float64) float64 {
	return floats.Norm(diff, 1) / float64(len(diff))
}
