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

package dataset

import (
	"math"
	"math/rand"
	"time"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"

	"github.com/gorse-io/tuner/common/parallel"
)

// Rating is a rating given by a user to an item.
type Rating struct {
	UserId    string
	ItemId    string
	Value     float64
	Timestamp time.Time
}

// Scale is the closed range of valid rating values.
type Scale struct {
	Low  float64
	High float64
}

// DefaultScale is the rating scale of MovieLens-like datasets.
var DefaultScale = Scale{Low: 1, High: 5}

// Contains checks whether a value lies in the scale.
func (s Scale) Contains(value float64) bool {
	return value >= s.Low && value <= s.High
}

// Clip a prediction into the scale.
func (s Scale) Clip(value float64) float64 {
	return math.Max(s.Low, math.Min(s.High, value))
}

// Dataset is a ratings table. User and item dictionaries are shared by every
// split derived from the same dataset, so dense ids are stable across folds.
type Dataset struct {
	scale    Scale
	userDict *FreqDict
	itemDict *FreqDict
	userIds  []int32
	itemIds  []int32
	values   []float64
}

func NewDataset(scale Scale, capacity int) *Dataset {
	return &Dataset{
		scale:    scale,
		userDict: NewFreqDict(),
		itemDict: NewFreqDict(),
		userIds:  make([]int32, 0, capacity),
		itemIds:  make([]int32, 0, capacity),
		values:   make([]float64, 0, capacity),
	}
}

// AddRating appends a rating. Values outside the rating scale are rejected.
func (d *Dataset) AddRating(userId, itemId string, value float64) error {
	if math.IsNaN(value) || !d.scale.Contains(value) {
		return errors.NotValidf("rating %v of user %v to item %v out of scale [%v, %v]",
			value, userId, itemId, d.scale.Low, d.scale.High)
	}
	d.userIds = append(d.userIds, int32(d.userDict.Id(userId)))
	d.itemIds = append(d.itemIds, int32(d.itemDict.Id(itemId)))
	d.values = append(d.values, value)
	return nil
}

func (d *Dataset) GetScale() Scale {
	return d.scale
}

// Count returns the number of ratings.
func (d *Dataset) Count() int {
	return len(d.values)
}

// CountUsers returns the number of users in the shared dictionary.
func (d *Dataset) CountUsers() int {
	return d.userDict.Count()
}

// CountItems returns the number of items in the shared dictionary.
func (d *Dataset) CountItems() int {
	return d.itemDict.Count()
}

func (d *Dataset) GetUserDict() *FreqDict {
	return d.userDict
}

func (d *Dataset) GetItemDict() *FreqDict {
	return d.itemDict
}

// Get the i-th rating in dense ids.
func (d *Dataset) Get(i int) (int32, int32, float64) {
	return d.userIds[i], d.itemIds[i], d.values[i]
}

// GetRating returns the i-th rating with original ids.
func (d *Dataset) GetRating(i int) Rating {
	userId, _ := d.userDict.String(int(d.userIds[i]))
	itemId, _ := d.itemDict.String(int(d.itemIds[i]))
	return Rating{UserId: userId, ItemId: itemId, Value: d.values[i]}
}

func (d *Dataset) GetValues() []float64 {
	return d.values
}

// GlobalMean returns the mean of all ratings. Zero for an empty dataset.
func (d *Dataset) GlobalMean() float64 {
	if len(d.values) == 0 {
		return 0
	}
	return floats.Sum(d.values) / float64(len(d.values))
}

// GetUserRatings returns indices of ratings grouped by dense user id.
func (d *Dataset) GetUserRatings() [][]int32 {
	return d.group(d.userIds, d.CountUsers())
}

// GetItemRatings returns indices of ratings grouped by dense item id.
func (d *Dataset) GetItemRatings() [][]int32 {
	return d.group(d.itemIds, d.CountItems())
}

func (d *Dataset) group(ids []int32, n int) [][]int32 {
	groups := make([][]int32, n)
	for i, id := range ids {
		groups[id] = append(groups[id], int32(i))
	}
	return groups
}

// Subset returns a dataset containing the ratings at indices. Dictionaries are shared.
func (d *Dataset) Subset(indices []int) *Dataset {
	subset := &Dataset{
		scale:    d.scale,
		userDict: d.userDict,
		itemDict: d.itemDict,
		userIds:  make([]int32, len(indices)),
		itemIds:  make([]int32, len(indices)),
		values:   make([]float64, len(indices)),
	}
	for i, index := range indices {
		subset.userIds[i] = d.userIds[index]
		subset.itemIds[i] = d.itemIds[index]
		subset.values[i] = d.values[index]
	}
	return subset
}

// Fold is a pair of train and test sets.
type Fold struct {
	TrainSet *Dataset
	TestSet  *Dataset
}

// KFold shuffles ratings with the seed and splits them into n folds of nearly
// equal size. The i-th fold tests on the i-th part and trains on the rest.
func (d *Dataset) KFold(n int, seed int64) ([]Fold, error) {
	if n < 2 {
		return nil, errors.NotValidf("number of folds %d", n)
	}
	if n > d.Count() {
		return nil, errors.NotValidf("number of folds %d greater than number of ratings %d", n, d.Count())
	}
	indices := lo.Range(d.Count())
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
	parts := parallel.Split(indices, n)
	folds := make([]Fold, n)
	for i := range parts {
		train := make([]int, 0, d.Count()-len(parts[i]))
		for j := range parts {
			if j != i {
				train = append(train, parts[j]...)
			}
		}
		folds[i] = Fold{
			TrainSet: d.Subset(train),
			TestSet:  d.Subset(parts[i]),
		}
	}
	return folds, nil
}
