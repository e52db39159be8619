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
	"fmt"

	"github.com/gorse-io/tuner/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// RecoverError converts a recovered panic into an error and logs it. Use it in
// a deferred closure: defer func() { err = util.RecoverError(recover(), err) }().
func RecoverError(r any, err error) error {
	if r == nil {
		return err
	}
	log.Logger().Error("panic recovered", zap.Any("panic", r))
	if e, ok := r.(error); ok {
		return errors.Annotate(e, "panic")
	}
	return errors.New(fmt.Sprintf("panic: %v", r))
}
