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

package util

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverError(t *testing.T) {
	assert.NoError(t, RecoverError(nil, nil))
	assert.ErrorIs(t, RecoverError(nil, io.EOF), io.EOF)
	err := func() (err error) {
		defer func() { err = RecoverError(recover(), err) }()
		panic("boom")
	}()
	assert.EqualError(t, err, "panic: boom")
	err = func() (err error) {
		defer func() { err = RecoverError(recover(), err) }()
		panic(io.ErrUnexpectedEOF)
	}()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
