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

package plot

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/juju/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/gorse-io/tuner/search"
	"github.com/gorse-io/tuner/storage/blob"
)

// File returns the name of the RMSE comparison plot of a model.
func File(modelName string) string {
	return modelName + "_rmse_comparison.png"
}

// Series is a line of (x, rmse) points sharing the same group value.
type Series struct {
	Group  string
	Points plotter.XYs
}

// NewSeries partitions rows of a results table by the value of the group column.
// Series are in order of first appearance and points are sorted by x.
func NewSeries(table search.Table, group, x string) ([]Series, error) {
	groupIndex, err := table.Column(group)
	if err != nil {
		return nil, errors.Trace(err)
	}
	xIndex, err := table.Column(x)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var series []Series
	positions := make(map[string]int)
	for i, row := range table.Rows {
		fields := append(append([]string{}, row.Values...), strconv.FormatFloat(row.RMSE, 'g', -1, 64))
		xValue, err := strconv.ParseFloat(fields[xIndex], 64)
		if err != nil {
			return nil, errors.NotValidf("%s %q at row %d", x, fields[xIndex], i+1)
		}
		key := fields[groupIndex]
		pos, exist := positions[key]
		if !exist {
			pos = len(series)
			positions[key] = pos
			series = append(series, Series{Group: key})
		}
		series[pos].Points = append(series[pos].Points, plotter.XY{X: xValue, Y: row.RMSE})
	}
	for _, s := range series {
		slices.SortStableFunc(s.Points, func(a, b plotter.XY) int {
			return cmp.Compare(a.X, b.X)
		})
	}
	return series, nil
}

// Options of a line chart.
type Options struct {
	Title  string
	XLabel string
	YLabel string
	// Legend formats the legend of a series by its group value.
	Legend func(group string) string
	Width  vg.Length
	Height vg.Length
}

// Render draws one line with point markers for each series.
func Render(series []Series, opts Options) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	args := make([]interface{}, 0, 2*len(series))
	for _, s := range series {
		label := s.Group
		if opts.Legend != nil {
			label = opts.Legend(s.Group)
		}
		args = append(args, label, s.Points)
	}
	if err := plotutil.AddLinePoints(p, args...); err != nil {
		return nil, errors.Trace(err)
	}
	return p, nil
}

// Save a plot as PNG to an artifact store, overwriting the previous one.
func Save(store blob.Store, name string, p *plot.Plot, opts Options) error {
	writerTo, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return errors.Trace(err)
	}
	return blob.WriteFile(store, name, func(w io.Writer) error {
		_, err := writerTo.WriteTo(w)
		return err
	})
}

// GroupLegend formats legends as "<group> = <value>".
func GroupLegend(group string) func(string) string {
	return func(value string) string {
		return fmt.Sprintf("%s = %s", group, value)
	}
}
