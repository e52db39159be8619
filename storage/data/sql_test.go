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
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"

	"github.com/gorse-io/tuner/dataset"
)

// insertSQL creates the table of ratings and inserts ratings into it.
func insertSQL(t *testing.T, db Database, opts Options, ratings []dataset.Rating) {
	gormDB := db.(*SQLDatabase).gormDB
	definition := "? VARCHAR(256) NOT NULL, ? VARCHAR(256) NOT NULL, ? DOUBLE PRECISION NOT NULL"
	args := []interface{}{
		clause.Table{Name: opts.Table},
		clause.Column{Name: opts.UserColumn},
		clause.Column{Name: opts.ItemColumn},
		clause.Column{Name: opts.RatingColumn},
	}
	if opts.TimestampColumn != "" {
		definition += ", ? TIMESTAMP"
		args = append(args, clause.Column{Name: opts.TimestampColumn})
	}
	require.NoError(t, gormDB.Exec("CREATE TABLE ? ("+definition+")", args...).Error)
	rows := make([]map[string]interface{}, len(ratings))
	for i, rating := range ratings {
		rows[i] = map[string]interface{}{
			opts.UserColumn:   rating.UserId,
			opts.ItemColumn:   rating.ItemId,
			opts.RatingColumn: rating.Value,
		}
		if opts.TimestampColumn != "" {
			rows[i][opts.TimestampColumn] = rating.Timestamp
		}
	}
	require.NoError(t, gormDB.Table(opts.Table).Create(rows).Error)
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.db")
	opts := DefaultOptions()
	opts.Table = "movielens"
	opts.UserColumn = "user_id"
	opts.ItemColumn = "item_id"
	db, err := Open("sqlite://"+path, opts)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, db.Close())
	}()
	insertSQL(t, db, opts, []dataset.Rating{
		{UserId: "1", ItemId: "10", Value: 4},
		{UserId: "1", ItemId: "20", Value: 2},
		{UserId: "2", ItemId: "10", Value: 5},
	})
	assert.ElementsMatch(t, []dataset.Rating{
		{UserId: "1", ItemId: "10", Value: 4},
		{UserId: "1", ItemId: "20", Value: 2},
		{UserId: "2", ItemId: "10", Value: 5},
	}, readAll(t, db))
	ds, err := LoadDataset(context.Background(), db, dataset.DefaultScale)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Count())
	assert.Equal(t, 2, ds.CountUsers())
}

func TestSQLite_Timestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.db")
	opts := DefaultOptions()
	opts.TimestampColumn = "time_stamp"
	db, err := Open("sqlite://"+path, opts)
	require.NoError(t, err)
	defer db.Close()
	timestamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	insertSQL(t, db, opts, []dataset.Rating{
		{UserId: "1", ItemId: "10", Value: 4, Timestamp: timestamp},
	})
	ratings := readAll(t, db)
	require.Len(t, ratings, 1)
	assert.True(t, timestamp.Equal(ratings[0].Timestamp))
}
