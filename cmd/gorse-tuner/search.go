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
	"runtime"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/gorse-io/tuner/base/log"
	"github.com/gorse-io/tuner/base/progress"
	"github.com/gorse-io/tuner/config"
	"github.com/gorse-io/tuner/dataset"
	"github.com/gorse-io/tuner/model"
	"github.com/gorse-io/tuner/model/rating"
	"github.com/gorse-io/tuner/search"
	"github.com/gorse-io/tuner/storage/blob"
	"github.com/gorse-io/tuner/storage/data"
)

var searchCommand = &cobra.Command{
	Use:   "search [model]",
	Short: "Search hyper-parameters of a model by cross validation.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applySearchFlags(cmd.Flags(), args, conf); err != nil {
			return errors.Trace(err)
		}
		algorithm, err := rating.GetAlgorithm(conf.Search.Model)
		if err != nil {
			return errors.Trace(err)
		}
		ds, err := loadDataset(cmd.Context(), conf)
		if err != nil {
			return errors.Trace(err)
		}
		grid := conf.Search.ParamsGrid().Fill(algorithm.Grid())
		result, err := runSearch(cmd.Context(), conf, algorithm, grid, ds)
		if err != nil {
			return errors.Trace(err)
		}
		store, err := blob.Open(conf.Output.Dir, conf)
		if err != nil {
			return errors.Trace(err)
		}
		reporter := search.NewReporter(store, algorithm)
		if err = reporter.PrintSummary(os.Stdout, result); err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(reporter.SaveResults(result))
	},
}

func init() {
	addSearchFlags(searchCommand.Flags())
	searchCommand.Flags().String("strategy", "grid", "search strategy (grid or tpe)")
	searchCommand.Flags().Int("trials", 10, "number of trials of the tpe strategy")
	rootCommand.AddCommand(searchCommand)
}

func addSearchFlags(flagSet *pflag.FlagSet) {
	flagSet.String("data", "", "ratings source (csv file or database URL)")
	flagSet.String("output", "", "output directory or object store URL")
	flagSet.Int("folds", 5, "number of folds of cross validation")
	flagSet.Int("jobs", runtime.NumCPU(), "number of jobs for cross validation")
	flagSet.Int64("seed", 0, "random seed of fold splitting")
	flagSet.StringArray("param", nil, "hyper-parameter values, e.g. --param n_epochs=20,50,100")
}

// applySearchFlags overrides configuration by command line flags.
func applySearchFlags(flagSet *pflag.FlagSet, args []string, conf *config.Config) error {
	if len(args) > 0 {
		conf.Search.Model = args[0]
	}
	if flagSet.Changed("data") {
		conf.Data.Source, _ = flagSet.GetString("data")
	}
	if flagSet.Changed("output") {
		conf.Output.Dir, _ = flagSet.GetString("output")
	}
	if flagSet.Changed("folds") {
		conf.Search.NFolds, _ = flagSet.GetInt("folds")
	}
	if flagSet.Changed("jobs") {
		conf.Search.NJobs, _ = flagSet.GetInt("jobs")
	}
	if flagSet.Changed("seed") {
		conf.Search.RandomState, _ = flagSet.GetInt64("seed")
	}
	if flagSet.Lookup("strategy") != nil && flagSet.Changed("strategy") {
		conf.Search.Strategy, _ = flagSet.GetString("strategy")
	}
	if flagSet.Lookup("trials") != nil && flagSet.Changed("trials") {
		conf.Search.NTrials, _ = flagSet.GetInt("trials")
	}
	if flagSet.Changed("param") {
		params, _ := flagSet.GetStringArray("param")
		for _, param := range params {
			grid, err := parseParamFlag(param)
			if err != nil {
				return errors.Trace(err)
			}
			conf.Search.Grid = setGrid(conf.Search.Grid, grid)
		}
	}
	return conf.Validate()
}

// parseParamFlag parses "name=v1,v2,...". Values are integers, floats, booleans
// or strings, in this order of precedence.
func parseParamFlag(flag string) (config.GridConfig, error) {
	name, values, ok := strings.Cut(flag, "=")
	if !ok || name == "" {
		return config.GridConfig{}, errors.NotValidf("hyper-parameter flag %q", flag)
	}
	grid := config.GridConfig{Name: name, Values: []interface{}{}}
	if values == "" {
		return grid, nil
	}
	for _, value := range strings.Split(values, ",") {
		grid.Values = append(grid.Values, parseValue(strings.TrimSpace(value)))
	}
	return grid, nil
}

func parseValue(value string) interface{} {
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}

// setGrid replaces the values of a hyper-parameter or appends it.
func setGrid(grid []config.GridConfig, param config.GridConfig) []config.GridConfig {
	for i := range grid {
		if grid[i].Name == param.Name {
			grid[i] = param
			return grid
		}
	}
	return append(grid, param)
}

func loadDataset(ctx context.Context, conf *config.Config) (*dataset.Dataset, error) {
	opts := data.Options{
		Table:           conf.Data.Table,
		UserColumn:      conf.Data.UserColumn,
		ItemColumn:      conf.Data.ItemColumn,
		RatingColumn:    conf.Data.RatingColumn,
		TimestampColumn: conf.Data.TimestampColumn,
		Separator:       conf.Data.Separator,
		Header:          conf.Data.Header,
		Format:          conf.Data.Format,
		MaxRetries:      uint(conf.Data.MaxRetries),
	}
	log.Logger().Info("connect data source", zap.String("source", log.RedactURL(conf.Data.Source)))
	database, err := data.Open(conf.Data.Source, opts)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Logger().Warn("failed to close data source", zap.Error(err))
		}
	}()
	scale := dataset.Scale{Low: conf.Data.RatingScale[0], High: conf.Data.RatingScale[1]}
	return data.LoadDataset(ctx, database, scale)
}

// trackedEvaluator advances a progress bar after each trial.
type trackedEvaluator struct {
	search.Evaluator
	span *progress.Span
}

func (e *trackedEvaluator) Evaluate(ctx context.Context, params model.Params) (rating.CrossValidateResult, error) {
	result, err := e.Evaluator.Evaluate(ctx, params)
	if err == nil {
		e.span.Add(1)
	}
	return result, err
}

func runSearch(ctx context.Context, conf *config.Config, algorithm rating.Algorithm, grid model.ParamsGrid, ds *dataset.Dataset) (search.Result, error) {
	total := grid.NumCombinations()
	if conf.Search.Strategy == "tpe" {
		total = min(total, conf.Search.NTrials)
	}
	log.Logger().Info("start search",
		zap.String("model", algorithm.Name),
		zap.String("strategy", conf.Search.Strategy),
		zap.Int("n_trials", total),
		zap.Int("n_folds", conf.Search.NFolds),
		zap.Any("grid", grid))
	ctx, span := tracer.Start(ctx, algorithm.Name, total)
	evaluator := &trackedEvaluator{
		Evaluator: &search.CVEvaluator{
			Creator: algorithm.New,
			Dataset: ds,
			NFolds:  conf.Search.NFolds,
			Seed:    conf.Search.RandomState,
			Jobs:    conf.Search.NJobs,
		},
		span: span,
	}
	var (
		result search.Result
		err    error
	)
	switch conf.Search.Strategy {
	case "tpe":
		result, err = search.TPESearch(ctx, evaluator, grid, conf.Search.NTrials, conf.Search.RandomState)
	default:
		result, err = search.GridSearch(ctx, evaluator, grid)
	}
	if err != nil {
		span.Fail(err)
		return result, errors.Trace(err)
	}
	span.End()
	return result, nil
}
