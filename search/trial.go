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
	"math"

	"github.com/juju/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/gorse-io/tuner/base/log"
	"github.com/gorse-io/tuner/dataset"
	"github.com/gorse-io/tuner/model"
	"github.com/gorse-io/tuner/model/rating"
)

// Evaluator scores a configuration by cross validation.
type Evaluator interface {
	Evaluate(ctx context.Context, params model.Params) (rating.CrossValidateResult, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(ctx context.Context, params model.Params) (rating.CrossValidateResult, error)

func (f EvaluatorFunc) Evaluate(ctx context.Context, params model.Params) (rating.CrossValidateResult, error) {
	return f(ctx, params)
}

// CVEvaluator evaluates configurations by k-fold cross validation on a dataset.
type CVEvaluator struct {
	Creator rating.Creator
	Dataset *dataset.Dataset
	NFolds  int
	Seed    int64
	Jobs    int
}

func (e *CVEvaluator) Evaluate(ctx context.Context, params model.Params) (rating.CrossValidateResult, error) {
	return rating.CrossValidate(ctx, e.Creator, params, e.Dataset, e.NFolds, e.Seed, e.Jobs)
}

// TrialResult is the outcome of evaluating one configuration.
type TrialResult struct {
	Index  int
	Params model.Params
	RMSE   float64
	MAE    float64
	Folds  rating.CrossValidateResult
}

// RunTrial evaluates a configuration and reduces per-fold scores to means.
func RunTrial(ctx context.Context, evaluator Evaluator, index int, params model.Params) (TrialResult, error) {
	log.Logger().Info("start trial", zap.Int("trial", index), zap.Any("params", params))
	folds, err := evaluator.Evaluate(ctx, params)
	if err != nil {
		return TrialResult{}, errors.Annotatef(err, "trial %d", index)
	}
	if len(folds.RMSE) == 0 {
		return TrialResult{}, errors.NotValidf("empty folds of trial %d", index)
	}
	result := TrialResult{
		Index:  index,
		Params: params,
		RMSE:   stat.Mean(folds.RMSE, nil),
		MAE:    math.NaN(),
		Folds:  folds,
	}
	if len(folds.MAE) > 0 {
		result.MAE = stat.Mean(folds.MAE, nil)
	}
	return result, nil
}
