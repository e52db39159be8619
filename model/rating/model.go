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

package rating

import (
	"context"
	"encoding/binary"
	"io"
	"reflect"

	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"

	"github.com/gorse-io/tuner/base/encoding"
	"github.com/gorse-io/tuner/dataset"
	"github.com/gorse-io/tuner/model"
)

// Model predicts ratings given by users to items.
type Model interface {
	model.Model
	// Fit the model on a train set.
	Fit(ctx context.Context, trainSet *dataset.Dataset) error
	// Predict the rating given by a user to an item.
	Predict(userId, itemId string) float64
	// Marshal model into byte stream.
	Marshal(w io.Writer) error
	// Unmarshal model from byte stream.
	Unmarshal(r io.Reader) error

	internalPredict(userIndex, itemIndex int32) float64
}

// Creator creates a model with hyper-parameters.
type Creator func(params model.Params) Model

// BaseRatingModel manages dictionaries, predictable flags and the global mean of rating models.
type BaseRatingModel struct {
	model.BaseModel
	Scale           dataset.Scale
	GlobalMean      float64
	UserIndex       *dataset.FreqDict
	ItemIndex       *dataset.FreqDict
	UserPredictable *bitset.BitSet
	ItemPredictable *bitset.BitSet
}

// Init dictionaries and predictable flags from a train set. Users and items
// without ratings in the train set are not predictable.
func (baseModel *BaseRatingModel) Init(trainSet *dataset.Dataset) {
	baseModel.ResetRandomGenerator()
	baseModel.Scale = trainSet.GetScale()
	baseModel.GlobalMean = trainSet.GlobalMean()
	baseModel.UserIndex = trainSet.GetUserDict()
	baseModel.ItemIndex = trainSet.GetItemDict()
	baseModel.UserPredictable = bitset.New(uint(trainSet.CountUsers()))
	baseModel.ItemPredictable = bitset.New(uint(trainSet.CountItems()))
	for i := 0; i < trainSet.Count(); i++ {
		userIndex, itemIndex, _ := trainSet.Get(i)
		baseModel.UserPredictable.Set(uint(userIndex))
		baseModel.ItemPredictable.Set(uint(itemIndex))
	}
}

// IsUserPredictable returns false if the user has no rating in the train set.
func (baseModel *BaseRatingModel) IsUserPredictable(userIndex int32) bool {
	if baseModel.UserPredictable == nil || userIndex < 0 {
		return false
	}
	return baseModel.UserPredictable.Test(uint(userIndex))
}

// IsItemPredictable returns false if the item has no rating in the train set.
func (baseModel *BaseRatingModel) IsItemPredictable(itemIndex int32) bool {
	if baseModel.ItemPredictable == nil || itemIndex < 0 {
		return false
	}
	return baseModel.ItemPredictable.Test(uint(itemIndex))
}

func (baseModel *BaseRatingModel) lookup(userId, itemId string) (int32, int32) {
	userIndex, itemIndex := int32(-1), int32(-1)
	if baseModel.UserIndex != nil {
		if id, ok := baseModel.UserIndex.Lookup(userId); ok {
			userIndex = int32(id)
		}
	}
	if baseModel.ItemIndex != nil {
		if id, ok := baseModel.ItemIndex.Lookup(itemId); ok {
			itemIndex = int32(id)
		}
	}
	return userIndex, itemIndex
}

func (baseModel *BaseRatingModel) Clear() {
	baseModel.UserIndex = nil
	baseModel.ItemIndex = nil
	baseModel.UserPredictable = nil
	baseModel.ItemPredictable = nil
	baseModel.GlobalMean = 0
}

// Marshal hyper-parameters, dictionaries and predictable flags into byte stream.
func (baseModel *BaseRatingModel) Marshal(w io.Writer) error {
	// write params
	params := baseModel.Params
	if params == nil {
		params = model.Params{}
	}
	if err := encoding.WriteGob(w, params); err != nil {
		return errors.Trace(err)
	}
	// write scale and global mean
	if err := binary.Write(w, binary.LittleEndian, []float64{baseModel.Scale.Low, baseModel.Scale.High, baseModel.GlobalMean}); err != nil {
		return errors.Trace(err)
	}
	// write dictionaries
	for _, dict := range []*dataset.FreqDict{baseModel.UserIndex, baseModel.ItemIndex} {
		if err := binary.Write(w, binary.LittleEndian, int64(dict.Count())); err != nil {
			return errors.Trace(err)
		}
		for i := 0; i < dict.Count(); i++ {
			s, _ := dict.String(i)
			if err := encoding.WriteString(w, s); err != nil {
				return errors.Trace(err)
			}
		}
	}
	// write predictable flags
	for _, flags := range []*bitset.BitSet{baseModel.UserPredictable, baseModel.ItemPredictable} {
		data, err := flags.MarshalBinary()
		if err != nil {
			return errors.Trace(err)
		}
		if err = encoding.WriteBytes(w, data); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// Unmarshal hyper-parameters, dictionaries and predictable flags from byte stream.
func (baseModel *BaseRatingModel) Unmarshal(r io.Reader) error {
	// read params
	var params model.Params
	if err := encoding.ReadGob(r, &params); err != nil {
		return errors.Trace(err)
	}
	baseModel.SetParams(params)
	// read scale and global mean
	values := make([]float64, 3)
	if err := binary.Read(r, binary.LittleEndian, values); err != nil {
		return errors.Trace(err)
	}
	baseModel.Scale = dataset.Scale{Low: values[0], High: values[1]}
	baseModel.GlobalMean = values[2]
	// read dictionaries
	dicts := make([]*dataset.FreqDict, 2)
	for i := range dicts {
		var count int64
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return errors.Trace(err)
		}
		dicts[i] = dataset.NewFreqDict()
		for j := int64(0); j < count; j++ {
			s, err := encoding.ReadString(r)
			if err != nil {
				return errors.Trace(err)
			}
			dicts[i].NotCount(s)
		}
	}
	baseModel.UserIndex, baseModel.ItemIndex = dicts[0], dicts[1]
	// read predictable flags
	flags := make([]*bitset.BitSet, 2)
	for i := range flags {
		data, err := encoding.ReadBytes(r)
		if err != nil {
			return errors.Trace(err)
		}
		flags[i] = new(bitset.BitSet)
		if err = flags[i].UnmarshalBinary(data); err != nil {
			return errors.Trace(err)
		}
	}
	baseModel.UserPredictable, baseModel.ItemPredictable = flags[0], flags[1]
	return nil
}

// GetModelName returns the registered name of a model.
func GetModelName(m Model) string {
	switch m.(type) {
	case *Baseline:
		return "baseline"
	case *SVD:
		return "svd"
	case *CoClustering:
		return "coclustering"
	default:
		return reflect.TypeOf(m).String()
	}
}

// MarshalModel writes the name of a model followed by the model.
func MarshalModel(w io.Writer, m Model) error {
	if err := encoding.WriteString(w, GetModelName(m)); err != nil {
		return errors.Trace(err)
	}
	if err := m.Marshal(w); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// UnmarshalModel reads a model written by MarshalModel.
func UnmarshalModel(r io.Reader) (Model, error) {
	name, err := encoding.ReadString(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	algorithm, err := GetAlgorithm(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	m := algorithm.New(nil)
	if err = m.Unmarshal(r); err != nil {
		return nil, errors.Trace(err)
	}
	return m, nil
}
