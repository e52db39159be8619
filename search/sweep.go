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
	"time"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/gorse-io/tuner/base/log"
	"github.com/gorse-io/tuner/base/progress"
	"github.com/gorse-io/tuner/model"
)

// Result of a hyper-parameter search. Trials are kept in completion order.
type Result struct {
	Trials []TrialResult
	Best   Best
}

func (r *Result) add(trial TrialResult) {
	r.Trials = append(r.Trials, trial)
	r.Best = r.Best.Update(trial)
}

// GridSearch evaluates every configuration of a grid in order and keeps the
// configuration with the lowest mean RMSE. Any error aborts the search.
func GridSearch(ctx context.Context, evaluator Evaluator, grid model.ParamsGrid) (Result, error) {
	configs := Enumerate(grid)
	result := Result{Trials: make([]TrialResult, 0, len(configs))}
	newCtx, span := progress.Start(ctx, "GridSearch", len(configs))
	start := time.Now()
	for i, params := range configs {
		if err := ctx.Err(); err != nil {
			span.Fail(err)
			return result, errors.Trace(err)
		}
		log.Logger().Info(fmt.Sprintf("grid search (%v/%v)", i+1, len(configs)), zap.Any("params", params))
		trial, err := RunTrial(newCtx, evaluator, i, params)
		if err != nil {
			span.Fail(err)
			return result, errors.Trace(err)
		}
		result.add(trial)
		log.Logger().Info("complete trial",
			zap.Int("trial", i),
			zap.Float64("rmse", trial.RMSE),
			zap.Float64("mae", trial.MAE),
			zap.Float64("best_rmse", result.Best.Score()))
		span.Add(1)
	}
	span.End()
	log.Logger().Info("complete grid search",
		zap.Int("n_trials", len(result.Trials)),
		zap.Float64("best_rmse", result.Best.Score()),
		zap.Any("best_params", result.Best.Trial.Params),
		zap.String("search_time", time.Since(start).String()))
	return result, nil
}
