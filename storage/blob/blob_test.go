// Copyright 2025 gorse Project Authors
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

package blob

import (
	"io"
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorse-io/tuner/base/log"
	"github.com/gorse-io/tuner/config"
)

func init() {
	log.CloseLogger()
}

func readString(t *testing.T, store Store, name string) string {
	var text string
	require.NoError(t, ReadFile(store, name, func(r io.Reader) error {
		data, err := io.ReadAll(r)
		text = string(data)
		return err
	}))
	return text
}

func writeString(t *testing.T, store Store, name, text string) {
	require.NoError(t, WriteFile(store, name, func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	}))
}

// testStore runs the common behaviors of artifact stores.
func testStore(t *testing.T, store Store) {
	// write and read
	writeString(t, store, "svd_grid_search_results.csv", "n_epochs,n_factors,rmse\n20,10,0.9\n")
	assert.Equal(t, "n_epochs,n_factors,rmse\n20,10,0.9\n", readString(t, store, "svd_grid_search_results.csv"))

	// overwrite
	writeString(t, store, "svd_grid_search_results.csv", "n_epochs,rmse\n")
	assert.Equal(t, "n_epochs,rmse\n", readString(t, store, "svd_grid_search_results.csv"))

	// abort keeps the old content
	err := WriteFile(store, "svd_grid_search_results.csv", func(w io.Writer) error {
		_, _ = io.WriteString(w, "broken")
		return errors.New("broken pipe")
	})
	assert.Error(t, err)
	assert.Equal(t, "n_epochs,rmse\n", readString(t, store, "svd_grid_search_results.csv"))

	// another artifact
	writeString(t, store, "svd.model", "model")
	assert.Equal(t, "model", readString(t, store, "svd.model"))

	// not found
	_, err = store.Open("svd.pickle")
	assert.True(t, errors.Is(err, errors.NotFound), err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, config.GetDefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, &POSIX{}, store)

	cfg := config.GetDefaultConfig()
	cfg.S3.Endpoint = "localhost:9000"
	store, err = Open("s3://tuner/results", cfg)
	require.NoError(t, err)
	s3, ok := store.(*S3)
	require.True(t, ok)
	assert.Equal(t, "tuner", s3.bucket)
	assert.Equal(t, "results", s3.prefix)

	cfg = config.GetDefaultConfig()
	cfg.Azure.AccountName = "tuner"
	cfg.Azure.AccountKey = "dHVuZXI="
	store, err = Open("azblob://container/a/b/", cfg)
	require.NoError(t, err)
	azure, ok := store.(*AzureBlob)
	require.True(t, ok)
	assert.Equal(t, "container", azure.container)
	assert.Equal(t, "a/b", azure.prefix)

	_, err = Open("azblob://container", config.GetDefaultConfig())
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = Open("ftp://localhost/results", config.GetDefaultConfig())
	assert.True(t, errors.Is(err, errors.NotSupported))
}

func TestWriteFile_CreateError(t *testing.T) {
	dir := t.TempDir()
	store := NewPOSIX(dir)
	writeString(t, store, "file", "text")
	// a regular file can not be a parent directory
	err := WriteFile(store, "file/child", func(w io.Writer) error {
		_, err := io.Copy(w, strings.NewReader("text"))
		return err
	})
	assert.Error(t, err)
}
