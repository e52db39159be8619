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
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/gorse-io/tuner/base"
	"github.com/gorse-io/tuner/model"
	"github.com/gorse-io/tuner/model/rating"
	"github.com/gorse-io/tuner/storage/blob"
)

const (
	BestFile  = "grid_search_best_params.txt"
	RMSEName  = "rmse"
	separator = ","
)

// ResultsFile returns the name of the results table of a model.
func ResultsFile(modelName string) string {
	return modelName + "_grid_search_results.csv"
}

// ModelFile returns the name of the dumped model.
func ModelFile(modelName string) string {
	return modelName + ".model"
}

// Row is a trial in the results table.
type Row struct {
	Values []string
	RMSE   float64
}

// Table is the persisted form of search results.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable builds a results table in completion order. Values are taken from
// flattened configurations and missing values are empty.
func NewTable(result Result, columns []model.ParamName) Table {
	table := Table{
		Columns: lo.Map(columns, func(name model.ParamName, _ int) string { return string(name) }),
		Rows:    make([]Row, len(result.Trials)),
	}
	for i, trial := range result.Trials {
		params := trial.Params.Flatten()
		table.Rows[i] = Row{
			Values: lo.Map(columns, func(name model.ParamName, _ int) string { return params.Format(name) }),
			RMSE:   trial.RMSE,
		}
	}
	return table
}

// Column returns the index of a column. The RMSE column is len(Columns).
func (table Table) Column(name string) (int, error) {
	if name == RMSEName {
		return len(table.Columns), nil
	}
	if index := lo.IndexOf(table.Columns, name); index >= 0 {
		return index, nil
	}
	return -1, errors.NotFoundf("column %q", name)
}

func formatRMSE(rmse float64) string {
	return strconv.FormatFloat(rmse, 'g', -1, 64)
}

// WriteTable writes a results table as comma separated values. The header is
// the columns followed by rmse.
func WriteTable(w io.Writer, table Table) error {
	if err := base.WriteLine(w, separator, append(append([]string{}, table.Columns...), RMSEName)...); err != nil {
		return errors.Trace(err)
	}
	for _, row := range table.Rows {
		if err := base.WriteLine(w, separator, append(append([]string{}, row.Values...), formatRMSE(row.RMSE))...); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// ReadTable reads a results table written by WriteTable.
func ReadTable(r io.Reader) (Table, error) {
	var (
		table = Table{Rows: []Row{}}
		err   error
	)
	readErr := base.ReadLines(bufio.NewScanner(r), separator, func(lineNumber int, fields []string) bool {
		if lineNumber == 0 {
			if len(fields) == 0 || fields[len(fields)-1] != RMSEName {
				err = errors.NotValidf("header %v without %s", fields, RMSEName)
				return false
			}
			table.Columns = fields[:len(fields)-1]
			return true
		}
		if len(fields) != len(table.Columns)+1 {
			err = errors.NotValidf("line %d with %d fields", lineNumber+1, len(fields))
			return false
		}
		rmse, parseErr := strconv.ParseFloat(fields[len(fields)-1], 64)
		if parseErr != nil {
			err = errors.NotValidf("rmse %q at line %d", fields[len(fields)-1], lineNumber+1)
			return false
		}
		table.Rows = append(table.Rows, Row{Values: fields[:len(fields)-1], RMSE: rmse})
		return true
	})
	if readErr != nil {
		return Table{}, errors.Trace(readErr)
	}
	if err != nil {
		return Table{}, err
	}
	if table.Columns == nil {
		return Table{}, errors.NotValidf("empty results table")
	}
	return table, nil
}

// WriteBest writes the best RMSE and the best configuration in two lines.
func WriteBest(w io.Writer, best Best) error {
	_, err := fmt.Fprintf(w, "Best RMSE: %v\nBest params: %s\n", best.Score(), best.Trial.Params.ToString())
	return errors.Trace(err)
}

// Reporter prints and persists search results of a model.
type Reporter struct {
	Store   blob.Store
	Model   string
	Columns []model.ParamName
}

// NewReporter creates a reporter for an algorithm.
func NewReporter(store blob.Store, algorithm rating.Algorithm) *Reporter {
	return &Reporter{
		Store:   store,
		Model:   algorithm.Name,
		Columns: algorithm.Columns,
	}
}

// PrintSummary prints the best configuration and the results table.
func (r *Reporter) PrintSummary(w io.Writer, result Result) error {
	if err := WriteBest(w, result.Best); err != nil {
		return errors.Trace(err)
	}
	table := NewTable(result, r.Columns)
	writer := tablewriter.NewWriter(w)
	writer.Header(lo.ToAnySlice(append(append([]string{}, table.Columns...), RMSEName))...)
	for _, row := range table.Rows {
		if err := writer.Append(append(append([]string{}, row.Values...), formatRMSE(row.RMSE))); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(writer.Render())
}

// SaveResults writes the results table, overwriting the previous one.
func (r *Reporter) SaveResults(result Result) error {
	return blob.WriteFile(r.Store, ResultsFile(r.Model), func(w io.Writer) error {
		return WriteTable(w, NewTable(result, r.Columns))
	})
}

// SaveBest writes the best configuration, overwriting the previous one.
func (r *Reporter) SaveBest(best Best) error {
	return blob.WriteFile(r.Store, BestFile, func(w io.Writer) error {
		return WriteBest(w, best)
	})
}

// SaveModel dumps a fitted model, overwriting the previous one.
func (r *Reporter) SaveModel(m rating.Model) error {
	return blob.WriteFile(r.Store, ModelFile(r.Model), func(w io.Writer) error {
		return rating.MarshalModel(w, m)
	})
}

// LoadTable reads a results table. An empty name refers to the results table
// of the model.
func (r *Reporter) LoadTable(name string) (Table, error) {
	if name == "" {
		name = ResultsFile(r.Model)
	}
	var table Table
	err := blob.ReadFile(r.Store, name, func(reader io.Reader) error {
		var err error
		table, err = ReadTable(reader)
		return err
	})
	return table, err
}
