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
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestAppendURLParams(t *testing.T) {
	// test windows path
	url, err := AppendURLParams(`c:\\sqlite.db`, []lo.Tuple2[string, string]{{A: "a", B: "b"}})
	assert.NoError(t, err)
	assert.Equal(t, `c:\\sqlite.db?a=b`, url)
	// test no scheme
	url, err = AppendURLParams(`sqlite.db`, []lo.Tuple2[string, string]{{A: "a", B: "b"}})
	assert.NoError(t, err)
	assert.Equal(t, `sqlite.db?a=b`, url)
}

func TestAppendMySQLParams(t *testing.T) {
	// existing parameters are kept
	dsn, err := AppendMySQLParams("root:password@tcp(127.0.0.1:3306)/movielens?parseTime=false",
		map[string]string{"parseTime": "true", "charset": "utf8mb4"})
	assert.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=false")
	assert.NotContains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
	cfg, err := mysql.ParseDSN(dsn)
	assert.NoError(t, err)
	assert.False(t, cfg.ParseTime)
	assert.Equal(t, "movielens", cfg.DBName)
	assert.Equal(t, "password", cfg.Passwd)

	// missing parameters are appended
	dsn, err = AppendMySQLParams("root:pass?word@tcp(127.0.0.1:3306)/movielens", map[string]string{"parseTime": "true"})
	assert.NoError(t, err)
	assert.Equal(t, "root:pass?word@tcp(127.0.0.1:3306)/movielens?parseTime=true", dsn)
	cfg, err = mysql.ParseDSN(dsn)
	assert.NoError(t, err)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "pass?word", cfg.Passwd)

	_, err = AppendMySQLParams("invalid", nil)
	assert.Error(t, err)
}

func TestHasAnyPrefix(t *testing.T) {
	assert.True(t, HasAnyPrefix("postgresql://localhost/db", PostgresPrefix, PostgreSQLPrefix))
	assert.False(t, HasAnyPrefix("ratings.csv", PostgresPrefix, PostgreSQLPrefix))
}

func TestSplitBucket(t *testing.T) {
	bucket, prefix := SplitBucket("tuner/results/svd/")
	assert.Equal(t, "tuner", bucket)
	assert.Equal(t, "results/svd", prefix)
	bucket, prefix = SplitBucket("tuner")
	assert.Equal(t, "tuner", bucket)
	assert.Equal(t, "", prefix)
}
