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
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorse-io/tuner/base/log"
	"github.com/gorse-io/tuner/dataset"
	"github.com/gorse-io/tuner/model"
	"github.com/gorse-io/tuner/model/rating"
)

func init() {
	log.CloseLogger()
}

// stubEvaluator returns fixed per-fold scores looked up by configuration.
type stubEvaluator struct {
	scores map[string]float64
	calls  []model.Params
}

func newStubEvaluator(scores map[string]float64) *stubEvaluator {
	return &stubEvaluator{scores: scores}
}

func (e *stubEvaluator) Evaluate(_ context.Context, params model.Params) (rating.CrossValidateResult, error) {
	e.calls = append(e.calls, params)
	key := params.ToString()
	score, ok := e.scores[key]
	if !ok {
		return rating.CrossValidateResult{}, errors.NotFoundf("score of %s", key)
	}
	return rating.CrossValidateResult{
		RMSE:     []float64{score, score, score, score, score},
		MAE:      []float64{score / 2, score / 2, score / 2, score / 2, score / 2},
		FitTime:  make([]float64, 5),
		TestTime: make([]float64, 5),
	}, nil
}

func TestRunTrial(t *testing.T) {
	evaluator := EvaluatorFunc(func(_ context.Context, params model.Params) (rating.CrossValidateResult, error) {
		return rating.CrossValidateResult{
			RMSE: []float64{0.8, 0.9, 1.0, 0.9, 0.9},
			MAE:  []float64{0.6, 0.7, 0.8, 0.7, 0.7},
		}, nil
	})
	params := model.Params{model.NEpochs: 20}
	result, err := RunTrial(context.Background(), evaluator, 3, params)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Index)
	assert.Equal(t, params, result.Params)
	assert.InDelta(t, 0.9, result.RMSE, 1e-12)
	assert.InDelta(t, 0.7, result.MAE, 1e-12)
	assert.Len(t, result.Folds.RMSE, 5)
}

func TestRunTrial_Error(t *testing.T) {
	// empty folds
	evaluator := EvaluatorFunc(func(context.Context, model.Params) (rating.CrossValidateResult, error) {
		return rating.CrossValidateResult{}, nil
	})
	_, err := RunTrial(context.Background(), evaluator, 0, model.Params{})
	assert.True(t, errors.Is(err, errors.NotValid))

	// missing MAE
	evaluator = func(context.Context, model.Params) (rating.CrossValidateResult, error) {
		return rating.CrossValidateResult{RMSE: []float64{1}}, nil
	}
	result, err := RunTrial(context.Background(), evaluator, 0, model.Params{})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(result.MAE))

	// evaluation error
	evaluator = func(context.Context, model.Params) (rating.CrossValidateResult, error) {
		return rating.CrossValidateResult{}, errors.NotValidf("number of clusters %d", 0)
	}
	_, err = RunTrial(context.Background(), evaluator, 0, model.Params{})
	assert.True(t, errors.Is(err, errors.NotValid))
}

func newTestDataset(t *testing.T) *dataset.Dataset {
	ds := dataset.NewDataset(dataset.DefaultScale, 0)
	for u := 0; u < 30; u++ {
		for i := 0; i < 20; i++ {
			if (u+i)%3 == 0 {
				continue
			}
			value := 3 + float64(u%3-1) + float64(i%2)*0.5
			require.NoError(t, ds.AddRating(fmt.Sprint(u), fmt.Sprint(i), value))
		}
	}
	return ds
}

func TestCVEvaluator(t *testing.T) {
	algorithm, err := rating.GetAlgorithm("baseline")
	require.NoError(t, err)
	evaluator := &CVEvaluator{
		Creator: algorithm.New,
		Dataset: newTestDataset(t),
		NFolds:  5,
		Seed:    0,
		Jobs:    2,
	}
	result, err := RunTrial(context.Background(), evaluator, 0, model.Params{model.NEpochs: 5})
	require.NoError(t, err)
	assert.Len(t, result.Folds.RMSE, 5)
	assert.Greater(t, result.RMSE, 0.0)
	assert.Less(t, result.RMSE, 1.0)
}
