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

package rating

import (
	"context"
	"math"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorse-io/tuner/dataset"
	"github.com/gorse-io/tuner/model"
)

func TestRMSE(t *testing.T) {
	assert.InDelta(t, math.Sqrt(7.0/3), RMSE([]float64{1, -1, 2.2360679775}), 1e-6)
	assert.InDelta(t, 1.0, MAE([]float64{1, -1, 1}), 1e-12)
	assert.InDelta(t, 2.0, MAE([]float64{-3, 1}), 1e-12)
}

func TestEvaluate_Empty(t *testing.T) {
	score := Evaluate(NewBaseline(nil), dataset.NewDataset(dataset.DefaultScale, 0))
	assert.True(t, math.IsNaN(score.RMSE))
	assert.True(t, math.IsNaN(score.MAE))
}

func TestCrossValidate(t *testing.T) {
	ds := newSyntheticDataset(t)
	algorithm, err := GetAlgorithm("baseline")
	require.NoError(t, err)
	result, err := CrossValidate(context.Background(), algorithm.New, model.Params{model.NEpochs: 5}, ds, 5, 0, 2)
	require.NoError(t, err)
	assert.Len(t, result.RMSE, 5)
	assert.Len(t, result.MAE, 5)
	assert.Len(t, result.FitTime, 5)
	assert.Len(t, result.TestTime, 5)
	for _, rmse := range result.RMSE {
		assert.Greater(t, rmse, 0.0)
	}
	assert.Less(t, result.MeanRMSE(), 1.0)
	assert.LessOrEqual(t, result.MeanMAE(), result.MeanRMSE())

	// same seed gives same scores
	again, err := CrossValidate(context.Background(), algorithm.New, model.Params{model.NEpochs: 5}, ds, 5, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, result.RMSE, again.RMSE)
	assert.Equal(t, result.MAE, again.MAE)
}

func TestCrossValidate_Error(t *testing.T) {
	ds := newSyntheticDataset(t)
	// too many folds
	_, err := CrossValidate(context.Background(), func(params model.Params) Model { return NewBaseline(params) }, nil, ds, ds.Count()+1, 0, 1)
	assert.True(t, errors.Is(err, errors.NotValid))
	// invalid params
	algorithm, err := GetAlgorithm("svd")
	require.NoError(t, err)
	_, err = CrossValidate(context.Background(), algorithm.New, model.Params{model.NFactors: -1}, ds, 3, 0, 1)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestGetAlgorithm(t *testing.T) {
	assert.Equal(t, []string{"svd", "coclustering", "baseline"}, ListAlgorithms())
	for _, name := range ListAlgorithms() {
		algorithm, err := GetAlgorithm(name)
		require.NoError(t, err)
		assert.Equal(t, name, algorithm.Name)
		assert.Equal(t, name, GetModelName(algorithm.New(nil)))
		assert.NotZero(t, algorithm.Grid().Len())
		assert.NotEmpty(t, algorithm.Columns)
	}
	svd, err := GetAlgorithm("svd")
	require.NoError(t, err)
	assert.Equal(t, 9, svd.Grid().NumCombinations())
	coc, err := GetAlgorithm("coclustering")
	require.NoError(t, err)
	assert.Equal(t, 27, coc.Grid().NumCombinations())
	baseline, err := GetAlgorithm("baseline")
	require.NoError(t, err)
	assert.Equal(t, 10, baseline.Grid().NumCombinations())
	_, err = GetAlgorithm("knn")
	assert.True(t, errors.Is(err, errors.NotFound))
}
