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
	"strconv"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/gorse-io/tuner/base/log"
	"github.com/gorse-io/tuner/base/progress"
	"github.com/gorse-io/tuner/model"
)

// TPESearch samples at most nTrials configurations of a grid by the TPE sampler.
// It falls back to GridSearch if the grid is not larger than nTrials. The best
// configuration is selected over completed trials the same way as GridSearch.
func TPESearch(ctx context.Context, evaluator Evaluator, grid model.ParamsGrid, nTrials int, seed int64) (Result, error) {
	if nTrials <= 0 {
		return Result{}, errors.NotValidf("number of trials %d", nTrials)
	}
	if grid.NumCombinations() <= nTrials {
		return GridSearch(ctx, evaluator, grid)
	}
	study, err := goptuna.CreateStudy("TPESearch",
		goptuna.StudyOptionDirection(goptuna.StudyDirectionMinimize),
		goptuna.StudyOptionSampler(tpe.NewSampler(tpe.SamplerOptionSeed(seed))),
		goptuna.StudyOptionLogger(&studyLogger{logger: log.Logger()}))
	if err != nil {
		return Result{}, errors.Trace(err)
	}
	// choices are indices of values since values may not be comparable
	choices := lo.Map(grid, func(param model.ParamValues, _ int) []string {
		return lo.Times(len(param.Values), strconv.Itoa)
	})
	result := Result{Trials: make([]TrialResult, 0, nTrials)}
	newCtx, span := progress.Start(ctx, "TPESearch", nTrials)
	objective := func(trial goptuna.Trial) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, errors.Trace(err)
		}
		params := make(model.Params, len(grid))
		for i, param := range grid {
			choice, err := trial.SuggestCategorical(string(param.Name), choices[i])
			if err != nil {
				return 0, errors.Trace(err)
			}
			index, err := strconv.Atoi(choice)
			if err != nil {
				return 0, errors.Trace(err)
			}
			value := param.Values[index]
			if nested, ok := value.(model.Params); ok {
				value = nested.Copy()
			}
			params[param.Name] = value
		}
		index := len(result.Trials)
		log.Logger().Info(fmt.Sprintf("tpe search (%v/%v)", index+1, nTrials), zap.Any("params", params))
		r, err := RunTrial(newCtx, evaluator, index, params)
		if err != nil {
			return 0, errors.Trace(err)
		}
		result.add(r)
		span.Add(1)
		if math.IsNaN(r.RMSE) {
			return math.Inf(1), nil
		}
		return r.RMSE, nil
	}
	if err = study.Optimize(objective, nTrials); err != nil {
		span.Fail(err)
		return result, errors.Trace(err)
	}
	span.End()
	log.Logger().Info("complete tpe search",
		zap.Int("n_trials", len(result.Trials)),
		zap.Float64("best_rmse", result.Best.Score()),
		zap.Any("best_params", result.Best.Trial.Params))
	return result, nil
}

// studyLogger redirects messages of goptuna studies to zap. Trials are already
// logged by the search, so goptuna info messages are demoted to debug.
type studyLogger struct {
	logger *zap.Logger
}

func (l *studyLogger) Debug(msg string, fields ...interface{}) {
	l.logger.Debug(msg, zap.Any("fields", fields))
}

func (l *studyLogger) Info(msg string, fields ...interface{}) {
	l.logger.Debug(msg, zap.Any("fields", fields))
}

func (l *studyLogger) Warn(msg string, fields ...interface{}) {
	l.logger.Warn(msg, zap.Any("fields", fields))
}

func (l *studyLogger) Error(msg string, fields ...interface{}) {
	l.logger.Error(msg, zap.Any("fields", fields))
}
