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

package main

import (
	"context"
	"os"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorse-io/tuner/base/log"
	"github.com/gorse-io/tuner/config"
	"github.com/gorse-io/tuner/model/rating"
	"github.com/gorse-io/tuner/search"
	"github.com/gorse-io/tuner/storage/blob"
)

var fitCommand = &cobra.Command{
	Use:   "fit [model]",
	Short: "Evaluate the configured hyper-parameters, then fit and dump the best model.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applySearchFlags(cmd.Flags(), args, conf); err != nil {
			return errors.Trace(err)
		}
		store, err := blob.Open(conf.Output.Dir, conf)
		if err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(runFit(cmd.Context(), conf, store))
	},
}

func init() {
	addSearchFlags(fitCommand.Flags())
	rootCommand.AddCommand(fitCommand)
}

// runFit evaluates the configured grid, saves the best configuration and dumps
// the model refitted on the full dataset with it.
func runFit(ctx context.Context, conf *config.Config, store blob.Store) error {
	algorithm, err := rating.GetAlgorithm(conf.Search.Model)
	if err != nil {
		return errors.Trace(err)
	}
	ds, err := loadDataset(ctx, conf)
	if err != nil {
		return errors.Trace(err)
	}
	conf.Search.Strategy = "grid"
	// hyper-parameters not configured use defaults of the model
	result, err := runSearch(ctx, conf, algorithm, conf.Search.ParamsGrid(), ds)
	if err != nil {
		return errors.Trace(err)
	}
	if !result.Best.Found {
		return errors.NotFoundf("best hyper-parameters")
	}
	reporter := search.NewReporter(store, algorithm)
	if err = reporter.PrintSummary(os.Stdout, result); err != nil {
		return errors.Trace(err)
	}
	if err = reporter.SaveBest(result.Best); err != nil {
		return errors.Trace(err)
	}
	// refit on the full dataset
	m := algorithm.New(result.Best.Trial.Params.Copy())
	if err = m.Fit(ctx, ds); err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("fit model",
		zap.String("model", algorithm.Name),
		zap.Any("params", m.GetParams()),
		zap.Int("n_ratings", ds.Count()))
	return errors.Trace(reporter.SaveModel(m))
}
