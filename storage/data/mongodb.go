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
	"fmt"
	"strconv"
	"time"

	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gorse-io/tuner/dataset"
)

// MongoDB reads ratings from a collection.
type MongoDB struct {
	client *mongo.Client
	dbName string
	opts   Options
}

// Close connection to MongoDB.
func (db *MongoDB) Close() error {
	return db.client.Disconnect(context.Background())
}

// GetRatingStream reads ratings from the collection in batches.
func (db *MongoDB) GetRatingStream(ctx context.Context, batchSize int) (chan []dataset.Rating, chan error) {
	ratingChan := make(chan []dataset.Rating, bufSize)
	errChan := make(chan error, 1)
	go func() {
		defer close(ratingChan)
		defer close(errChan)
		c := db.client.Database(db.dbName).Collection(db.opts.Table)
		projection := bson.M{"_id": 0}
		for _, column := range db.opts.columns() {
			projection[column] = 1
		}
		opt := options.Find().SetProjection(projection).SetBatchSize(int32(batchSize))
		r, err := c.Find(ctx, bson.M{}, opt)
		if err != nil {
			errChan <- errors.Trace(err)
			return
		}
		defer r.Close(ctx)
		ratings := make([]dataset.Rating, 0, batchSize)
		for r.Next(ctx) {
			var doc bson.M
			if err = r.Decode(&doc); err != nil {
				errChan <- errors.Trace(err)
				return
			}
			rating, err := db.decode(doc)
			if err != nil {
				errChan <- errors.Trace(err)
				return
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
		if err = r.Err(); err != nil {
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

func (db *MongoDB) decode(doc bson.M) (dataset.Rating, error) {
	var (
		rating dataset.Rating
		err    error
	)
	userId, ok := doc[db.opts.UserColumn]
	if !ok {
		return rating, errors.NotFoundf("field %s", db.opts.UserColumn)
	}
	rating.UserId = fmt.Sprint(userId)
	itemId, ok := doc[db.opts.ItemColumn]
	if !ok {
		return rating, errors.NotFoundf("field %s", db.opts.ItemColumn)
	}
	rating.ItemId = fmt.Sprint(itemId)
	switch value := doc[db.opts.RatingColumn].(type) {
	case float64:
		rating.Value = value
	case int32:
		rating.Value = float64(value)
	case int64:
		rating.Value = float64(value)
	case string:
		if rating.Value, err = strconv.ParseFloat(value, 64); err != nil {
			return rating, errors.NotValidf("rating %q", value)
		}
	case nil:
		return rating, errors.NotFoundf("field %s", db.opts.RatingColumn)
	default:
		return rating, errors.NotValidf("rating %v", value)
	}
	if db.opts.TimestampColumn != "" {
		switch timestamp := doc[db.opts.TimestampColumn].(type) {
		case primitive.DateTime:
			rating.Timestamp = timestamp.Time().UTC()
		case time.Time:
			rating.Timestamp = timestamp
		case string:
			if rating.Timestamp, err = parseTimestamp(timestamp); err != nil {
				return rating, errors.Trace(err)
			}
		}
	}
	return rating, nil
}
