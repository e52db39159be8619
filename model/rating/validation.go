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
	"context"
	"time"

	"github.com/juju/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/gorse-io/tuner/base/log"
	"github.com/gorse-io/tuner/base/progress"
	"github.com/gorse-io/tuner/common/parallel"
	"github.com/gorse-io/tuner/dataset"
	"github.com/gorse-io/tuner/model"
)

// CrossValidateResult holds per-fold scores and timings in seconds.
type CrossValidateResult struct {
	RMSE     []float64
	MAE      []float64
	FitTime  []float64
	TestTime []float64
}

// MeanRMSE returns the mean RMSE over folds.
func (r CrossValidateResult) MeanRMSE() float64 {
	return stat.Mean(r.RMSE, nil)
}

// MeanMAE returns the mean MAE over folds.
func (r CrossValidateResult) MeanMAE() float64 {
	return stat.Mean(r.MAE, nil)
}

// CrossValidate evaluates hyper-parameters by k-fold cross validation. Each fold
// trains a fresh model created by creator. Folds run on at most jobs workers.
func CrossValidate(ctx context.Context, creator Creator, params model.Params, ds *dataset.Dataset, nFolds int, seed int64, jobs int) (CrossValidateResult, error) {
	folds, err := ds.KFold(nFolds, seed)
	if err != nil {
		return CrossValidateResult{}, errors.Trace(err)
	}
	result := CrossValidateResult{
		RMSE:     make([]float64, nFolds),
		MAE:      make([]float64, nFolds),
		FitTime:  make([]float64, nFolds),
		TestTime: make([]float64, nFolds),
	}
	newCtx, span := progress.Start(ctx, "CrossValidate", nFolds)
	err = parallel.Parallel(newCtx, nFolds, jobs, func(_, i int) error {
		m := creator(params.Copy())
		start := time.Now()
		if err := m.Fit(newCtx, folds[i].TrainSet); err != nil {
			return errors.Trace(err)
		}
		fitTime := time.Since(start)
		start = time.Now()
		score := Evaluate(m, folds[i].TestSet)
		testTime := time.Since(start)
		result.RMSE[i] = score.RMSE
		result.MAE[i] = score.MAE
		result.FitTime[i] = fitTime.Seconds()
		result.TestTime[i] = testTime.Seconds()
		log.Logger().Debug("complete fold",
			zap.Int("fold", i+1),
			zap.Int("n_folds", nFolds),
			zap.Float64("rmse", score.RMSE),
			zap.Float64("mae", score.MAE),
			zap.Duration("fit_time", fitTime),
			zap.Duration("test_time", testTime))
		span.Add(1)
		return nil
	})
	if err != nil {
		span.Fail(err)
		return CrossValidateResult{}, errors.Trace(err)
	}
	span.End()
	return result, nil
}
