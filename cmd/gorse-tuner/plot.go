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
	"fmt"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/gorse-io/tuner/config"
	"github.com/gorse-io/tuner/model/rating"
	"github.com/gorse-io/tuner/plot"
	"github.com/gorse-io/tuner/search"
	"github.com/gorse-io/tuner/storage/blob"
)

var plotCommand = &cobra.Command{
	Use:   "plot [model]",
	Short: "Plot RMSE of search results grouped by a hyper-parameter.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyPlotFlags(cmd, args, conf)
		if err := conf.Validate(); err != nil {
			return errors.Trace(err)
		}
		store, err := blob.Open(conf.Output.Dir, conf)
		if err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(runPlot(store, conf))
	},
}

func init() {
	plotCommand.Flags().String("output", "", "output directory or object store URL")
	plotCommand.Flags().String("input", "", "results table to plot")
	plotCommand.Flags().String("image", "", "name of the output image")
	plotCommand.Flags().String("group", "", "column to group lines by")
	plotCommand.Flags().String("x", "", "column on the x axis")
	plotCommand.Flags().String("title", "", "title of the figure")
	rootCommand.AddCommand(plotCommand)
}

func applyPlotFlags(cmd *cobra.Command, args []string, conf *config.Config) {
	if len(args) > 0 {
		conf.Search.Model = args[0]
	}
	flags := []struct {
		name  string
		value *string
	}{
		{"output", &conf.Output.Dir},
		{"input", &conf.Plot.Input},
		{"image", &conf.Plot.Output},
		{"group", &conf.Plot.Group},
		{"x", &conf.Plot.X},
		{"title", &conf.Plot.Title},
	}
	for _, flag := range flags {
		if cmd.Flags().Changed(flag.name) {
			*flag.value, _ = cmd.Flags().GetString(flag.name)
		}
	}
}

func runPlot(store blob.Store, conf *config.Config) error {
	algorithm, err := rating.GetAlgorithm(conf.Search.Model)
	if err != nil {
		return errors.Trace(err)
	}
	output := conf.Plot.Output
	if output == "" {
		output = plot.File(algorithm.Name)
	}
	table, err := search.NewReporter(store, algorithm).LoadTable(conf.Plot.Input)
	if err != nil {
		return errors.Trace(err)
	}
	series, err := plot.NewSeries(table, conf.Plot.Group, conf.Plot.X)
	if err != nil {
		return errors.Trace(err)
	}
	opts := plot.Options{
		Title:  conf.Plot.Title,
		XLabel: conf.Plot.XLabel,
		YLabel: conf.Plot.YLabel,
		Legend: plot.GroupLegend(conf.Plot.Group),
		Width:  vg.Length(conf.Plot.Width) * vg.Inch,
		Height: vg.Length(conf.Plot.Height) * vg.Inch,
	}
	if opts.Title == "" {
		opts.Title = fmt.Sprintf("RMSE by %s for %s with different %s", conf.Plot.X, conf.Search.Model, conf.Plot.Group)
	}
	if opts.XLabel == "" {
		opts.XLabel = conf.Plot.X
	}
	p, err := plot.Render(series, opts)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(plot.Save(store, output, p, opts))
}
