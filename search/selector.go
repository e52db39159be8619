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

package search

import (
	"math"
)

// Best is the running minimum of trial scores.
type Best struct {
	Trial TrialResult
	Found bool
}

// Score returns the RMSE of the best trial, or +Inf if no trial is found.
func (b Best) Score() float64 {
	if !b.Found {
		return math.Inf(1)
	}
	return b.Trial.RMSE
}

// Update returns a new best if the trial scores strictly lower. Ties keep the
// earlier trial and NaN never wins.
func (b Best) Update(r TrialResult) Best {
	if r.RMSE < b.Score() {
		return Best{Trial: r, Found: true}
	}
	return b
}

// Select the best trial in order.
func Select(trials []TrialResult) Best {
	var best Best
	for _, trial := range trials {
		best = best.Update(trial)
	}
	return best
}
