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

package data

import (
	"context"
	"database/sql"
	"time"

	"github.com/araddon/dateparse"
	"github.com/juju/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gorse-io/tuner/dataset"
)

const bufSize = 1

type SQLDriver int

const (
	MySQL SQLDriver = iota
	Postgres
	SQLite
)

// SQLDatabase reads ratings from MySQL, PostgreSQL or SQLite.
type SQLDatabase struct {
	gormDB *gorm.DB
	client *sql.DB
	driver SQLDriver
	opts   Options
}

// Close connection.
func (d *SQLDatabase) Close() error {
	return d.client.Close()
}

// GetRatingStream reads ratings from the table in batches.
func (d *SQLDatabase) GetRatingStream(ctx context.Context, batchSize int) (chan []dataset.Rating, chan error) {
	ratingChan := make(chan []dataset.Rating, bufSize)
	errChan := make(chan error, 1)
	go func() {
		defer close(ratingChan)
		defer close(errChan)
		// send query
		columns := make([]interface{}, 0, 4)
		query := "?, ?, ?"
		for _, column := range d.opts.columns() {
			columns = append(columns, clause.Column{Name: column})
		}
		if d.opts.TimestampColumn != "" {
			query += ", ?"
		}
		result, err := d.gormDB.WithContext(ctx).Table(d.opts.Table).Select(query, columns...).Rows()
		if err != nil {
			errChan <- errors.Trace(err)
			return
		}
		// fetch result
		ratings := make([]dataset.Rating, 0, batchSize)
		defer result.Close()
		for result.Next() {
			var (
				rating    dataset.Rating
				timestamp sql.NullString
			)
			dest := []interface{}{&rating.UserId, &rating.ItemId, &rating.Value}
			if d.opts.TimestampColumn != "" {
				dest = append(dest, &timestamp)
			}
			if err = result.Scan(dest...); err != nil {
				errChan <- errors.Trace(err)
				return
			}
			if timestamp.Valid {
				if rating.Timestamp, err = parseTimestamp(timestamp.String); err != nil {
					errChan <- errors.Trace(err)
					return
				}
			}
			ratings = append(ratings, rating)
			if len(ratings) == batchSize {
				select {
				case ratingChan <- ratings:
				case <-ctx.Done():
					errChan <- errors.Trace(ctx.Err())
					return
				}
				ratings = make([]dataset.Rating, 0, batchSize)
			}
		}
		if err = result.Err(); err != nil {
			errChan <- errors.Trace(err)
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

func parseTimestamp(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, errors.NotValidf("timestamp %q", s)
	}
	return t, nil
}
