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
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/cenkalti/backoff/v5"
	"github.com/juju/errors"
	_ "github.com/lib/pq"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"github.com/gorse-io/tuner/base"
	"github.com/gorse-io/tuner/base/log"
	"github.com/gorse-io/tuner/dataset"
	"github.com/gorse-io/tuner/storage"
)

const batchSize = 1024

// Options describe where ratings are stored in a data source.
type Options struct {
	Table           string // table or collection of ratings
	UserColumn      string // column of user ids
	ItemColumn      string // column of item ids
	RatingColumn    string // column of rating values
	TimestampColumn string // optional column of timestamps
	Separator       string // field separator of csv files
	Header          bool   // whether csv files start with a header line
	Format          string // field order of csv files without header, "u", "i", "r", "t" or "_"
	MaxRetries      uint   // connection attempts of network databases
}

func DefaultOptions() Options {
	return Options{
		Table:        "ratings",
		UserColumn:   "userID",
		ItemColumn:   "itemID",
		RatingColumn: "rating",
		Separator:    ",",
		Header:       true,
		Format:       "uir",
		MaxRetries:   3,
	}
}

func (opts Options) columns() []string {
	columns := []string{opts.UserColumn, opts.ItemColumn, opts.RatingColumn}
	if opts.TimestampColumn != "" {
		columns = append(columns, opts.TimestampColumn)
	}
	return columns
}

// Database is a source of ratings.
type Database interface {
	// Close connection.
	Close() error
	// GetRatingStream reads ratings in batches. The error channel receives nil on success.
	// Reading stops once ctx is done.
	GetRatingStream(ctx context.Context, batchSize int) (chan []dataset.Rating, chan error)
}

// Open a data source by URL. Paths without a known scheme are csv files.
func Open(path string, opts Options) (Database, error) {
	var err error
	if strings.HasPrefix(path, storage.MySQLPrefix) {
		name := path[len(storage.MySQLPrefix):]
		// append parameters
		if name, err = storage.AppendMySQLParams(name, map[string]string{
			"parseTime": "true",
		}); err != nil {
			return nil, errors.Trace(err)
		}
		// connect to database
		database := &SQLDatabase{driver: MySQL, opts: opts}
		if database.client, err = otelsql.Open("mysql", name,
			otelsql.WithAttributes(attribute.String("db.system", "mysql")),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		if err = ping(database.client.PingContext, opts.MaxRetries); err != nil {
			return nil, errors.Annotatef(err, "failed to connect %s", log.RedactURL(path))
		}
		database.gormDB, err = gorm.Open(mysql.New(mysql.Config{Conn: database.client}), storage.NewGORMConfig())
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if storage.HasAnyPrefix(path, storage.PostgresPrefix, storage.PostgreSQLPrefix) {
		database := &SQLDatabase{driver: Postgres, opts: opts}
		if database.client, err = otelsql.Open("postgres", path,
			otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		if err = ping(database.client.PingContext, opts.MaxRetries); err != nil {
			return nil, errors.Annotatef(err, "failed to connect %s", log.RedactURL(path))
		}
		database.gormDB, err = gorm.Open(postgres.New(postgres.Config{Conn: database.client}), storage.NewGORMConfig())
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if storage.HasAnyPrefix(path, storage.MongoPrefix, storage.MongoSrvPrefix) {
		// connect to database
		database := &MongoDB{opts: opts}
		if database.client, err = mongo.Connect(context.Background(), options.Client().ApplyURI(path)); err != nil {
			return nil, errors.Trace(err)
		}
		if err = ping(func(ctx context.Context) error {
			return database.client.Ping(ctx, nil)
		}, opts.MaxRetries); err != nil {
			return nil, errors.Annotatef(err, "failed to connect %s", log.RedactURL(path))
		}
		// parse DSN and extract database name
		if cs, err := connstring.ParseAndValidate(path); err != nil {
			return nil, errors.Trace(err)
		} else {
			database.dbName = cs.Database
		}
		return database, nil
	} else if strings.HasPrefix(path, storage.SQLitePrefix) {
		// append parameters
		if path, err = storage.AppendURLParams(path, []lo.Tuple2[string, string]{
			{A: "_pragma", B: "busy_timeout(10000)"},
			{A: "_pragma", B: "journal_mode(wal)"},
		}); err != nil {
			return nil, errors.Trace(err)
		}
		// connect to database
		name := path[len(storage.SQLitePrefix):]
		database := &SQLDatabase{driver: SQLite, opts: opts}
		if database.client, err = otelsql.Open("sqlite", name,
			otelsql.WithAttributes(attribute.String("db.system", "sqlite")),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		database.gormDB, err = gorm.Open(sqlite.Dialector{Conn: database.client}, storage.NewGORMConfig())
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if strings.HasPrefix(path, storage.CSVPrefix) {
		return NewCSVFile(path[len(storage.CSVPrefix):], opts)
	} else if !strings.Contains(path, "://") {
		return NewCSVFile(path, opts)
	}
	return nil, errors.NotSupportedf("data source %s", log.RedactURL(path))
}

func ping(pingContext func(ctx context.Context) error, maxRetries uint) error {
	if maxRetries == 0 {
		maxRetries = 1
	}
	_, err := backoff.Retry(context.Background(), func() (struct{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pingContext(ctx); err != nil {
			log.Logger().Warn("failed to ping data source", zap.Error(err))
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxRetries))
	return errors.Trace(err)
}

// LoadDataset reads every rating of a data source into a dataset. Ratings out
// of the scale or with empty ids fail the load.
func LoadDataset(ctx context.Context, database Database, scale dataset.Scale) (*dataset.Dataset, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ds := dataset.NewDataset(scale, batchSize)
	ratingChan, errChan := database.GetRatingStream(ctx, batchSize)
	for ratings := range ratingChan {
		for _, rating := range ratings {
			if err := base.ValidateId(rating.UserId); err != nil {
				return nil, errors.Annotatef(err, "invalid user id of rating %d", ds.Count())
			}
			if err := base.ValidateId(rating.ItemId); err != nil {
				return nil, errors.Annotatef(err, "invalid item id of rating %d", ds.Count())
			}
			if err := ds.AddRating(rating.UserId, rating.ItemId, rating.Value); err != nil {
				return nil, errors.Trace(err)
			}
		}
	}
	if err := <-errChan; err != nil {
		return nil, errors.Trace(err)
	}
	if ds.Count() == 0 {
		return nil, errors.NotFoundf("ratings")
	}
	log.Logger().Info("load ratings",
		zap.Int("n_ratings", ds.Count()),
		zap.Int("n_users", ds.CountUsers()),
		zap.Int("n_items", ds.CountItems()),
		zap.Duration("used_time", time.Since(start)))
	return ds, nil
}
