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
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPOSIX(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blob")
	testStore(t, NewPOSIX(dir))

	// no temporary file is left
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name()
	}
	assert.ElementsMatch(t, []string{"svd_grid_search_results.csv", "svd.model"}, names)
}

func TestPOSIX_Nested(t *testing.T) {
	dir := t.TempDir()
	store := NewPOSIX(dir)
	writeString(t, store, "svd/svd.model", "model")
	assert.Equal(t, "model", readString(t, store, "svd/svd.model"))
	_, err := os.Stat(filepath.Join(dir, "svd", "svd.model"))
	assert.NoError(t, err)
}

func TestPOSIX_Permission(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not supported on windows")
	}
	dir := t.TempDir()
	store := NewPOSIX(dir)
	writeString(t, store, "grid_search_best_params.txt", "Best RMSE: 0.9\n")
	info, err := os.Stat(filepath.Join(dir, "grid_search_best_params.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}
