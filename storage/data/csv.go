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

package data

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/samber/lo"

	"github.com/gorse-io/tuner/base"
	"github.com/gorse-io/tuner/dataset"
)

// CSVFile reads ratings from a delimited text file.
type CSVFile struct {
	path string
	opts Options
}

func NewCSVFile(path string, opts Options) (*CSVFile, error) {
	if len([]rune(opts.Separator)) != 1 {
		return nil, errors.NotValidf("field separator %q", opts.Separator)
	}
	if !opts.Header {
		for _, field := range []rune{'u', 'i', 'r'} {
			if strings.Count(opts.Format, string(field)) != 1 {
				return nil, errors.NotValidf("format %q", opts.Format)
			}
		}
	}
	return &CSVFile{path: path, opts: opts}, nil
}

func (f *CSVFile) Close() error {
	return nil
}

// GetRatingStream reads ratings from the file in batches.
func (f *CSVFile) GetRatingStream(ctx context.Context, batchSize int) (chan []dataset.Rating, chan error) {
	ratingChan := make(chan []dataset.Rating, bufSize)
	errChan := make(chan error, 1)
	go func() {
		defer close(ratingChan)
		defer close(errChan)
		file, err := os.Open(f.path)
		if err != nil {
			errChan <- errors.Trace(err)
			return
		}
		defer file.Close()
		// field positions
		userIndex := strings.IndexRune(f.opts.Format, 'u')
		itemIndex := strings.IndexRune(f.opts.Format, 'i')
		ratingIndex := strings.IndexRune(f.opts.Format, 'r')
		timestampIndex := strings.IndexRune(f.opts.Format, 't')
		hasHeader := f.opts.Header
		ratings := make([]dataset.Rating, 0, batchSize)
		var lineErr error
		err = base.ReadLines(bufio.NewScanner(file), f.opts.Separator, func(lineNumber int, splits []string) bool {
			if hasHeader {
				hasHeader = false
				userIndex = lo.IndexOf(splits, f.opts.UserColumn)
				itemIndex = lo.IndexOf(splits, f.opts.ItemColumn)
				ratingIndex = lo.IndexOf(splits, f.opts.RatingColumn)
				timestampIndex = -1
				if f.opts.TimestampColumn != "" {
					timestampIndex = lo.IndexOf(splits, f.opts.TimestampColumn)
				}
				for i, column := range f.opts.columns() {
					if []int{userIndex, itemIndex, ratingIndex, timestampIndex}[i] < 0 {
						lineErr = errors.NotFoundf("column %s in %s", column, f.path)
						return false
					}
				}
				return true
			}
			if len(splits) == 1 && strings.TrimSpace(splits[0]) == "" {
				return true
			}
			maxIndex := max(userIndex, itemIndex, ratingIndex, timestampIndex)
			if len(splits) <= maxIndex {
				lineErr = errors.NotValidf("number of fields %d at line %d", len(splits), lineNumber+1)
				return false
			}
			var rating dataset.Rating
			rating.UserId = strings.TrimSpace(splits[userIndex])
			rating.ItemId = strings.TrimSpace(splits[itemIndex])
			if rating.Value, lineErr = strconv.ParseFloat(strings.TrimSpace(splits[ratingIndex]), 64); lineErr != nil {
				lineErr = errors.NotValidf("rating %q at line %d", splits[ratingIndex], lineNumber+1)
				return false
			}
			if timestampIndex >= 0 {
				if rating.Timestamp, lineErr = parseTimestamp(strings.TrimSpace(splits[timestampIndex])); lineErr != nil {
					lineErr = errors.Annotatef(lineErr, "line %d", lineNumber+1)
					return false
				}
			}
			ratings = append(ratings, rating)
			if len(ratings) == batchSize {
				select {
				case ratingChan <- ratings:
				case <-ctx.Done():
					lineErr = ctx.Err()
					return false
				}
				ratings = make([]dataset.Rating, 0, batchSize)
			}
			return true
		})
		if err != nil {
			errChan <- errors.Trace(err)
			return
		}
		if lineErr != nil {
			errChan <- errors.Trace(lineErr)
			return
		}
		if len(ratings) > 0 {
			select {
			case ratingChan <- ratings:
			case <-ctx.Done():
				errChan <- errors.Trace(ctx.Err())
				return
			}
		}
		errChan <- nil
	}()
	return ratingChan, errChan
}
