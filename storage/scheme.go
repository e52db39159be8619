// Copyright 2022 gorse Project Authors
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

package storage

import (
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	CSVPrefix        = "csv://"
	MySQLPrefix      = "mysql://"
	MongoPrefix      = "mongodb://"
	MongoSrvPrefix   = "mongodb+srv://"
	PostgresPrefix   = "postgres://"
	PostgreSQLPrefix = "postgresql://"
	SQLitePrefix     = "sqlite://"
	S3Prefix         = "s3://"
	GCSPrefix        = "gcs://"
	AzurePrefix      = "azblob://"
)

// HasAnyPrefix checks whether path starts with any of prefixes.
func HasAnyPrefix(path string, prefixes ...string) bool {
	return lo.SomeBy(prefixes, func(prefix string) bool {
		return strings.HasPrefix(path, prefix)
	})
}

func AppendURLParams(rawURL string, params []lo.Tuple2[string, string]) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Trace(err)
	}
	q := parsed.Query()
	for _, tuple := range params {
		q.Add(tuple.A, tuple.B)
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

// AppendMySQLParams appends parameters to a MySQL DSN. Parameters already in
// the DSN are kept.
func AppendMySQLParams(dsn string, params map[string]string) (string, error) {
	if _, err := mysql.ParseDSN(dsn); err != nil {
		return "", errors.Trace(err)
	}
	name, rawQuery := dsn, ""
	if i := strings.LastIndex(dsn, "/"); i >= 0 {
		if j := strings.IndexByte(dsn[i:], '?'); j >= 0 {
			name, rawQuery = dsn[:i+j], dsn[i+j+1:]
		}
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", errors.Trace(err)
	}
	for key, value := range params {
		if !query.Has(key) {
			query.Set(key, value)
		}
	}
	if len(query) == 0 {
		return name, nil
	}
	return name + "?" + query.Encode(), nil
}

// SplitBucket splits "bucket/prefix" of an object store URL.
func SplitBucket(path string) (bucket, prefix string) {
	bucket, prefix, _ = strings.Cut(path, "/")
	return bucket, strings.Trim(prefix, "/")
}

func NewGORMConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	}
}
