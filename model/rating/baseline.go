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
	"io"

	"github.com/juju/errors"

	"github.com/gorse-io/tuner/base/encoding"
	"github.com/gorse-io/tuner/dataset"
	"github.com/gorse-io/tuner/model"
)

const (
	ALS = "als"
	SGD = "sgd"
)

// Baseline predicts the rating of user u to item i by
//
//	\hat{r}_{ui} = \mu + b_u + b_i
//
// where the biases b_u and b_i are estimated by alternating least squares (ALS)
// or stochastic gradient descent (SGD). Options may be nested in bsl_options.
//
// Hyper-parameters:
//
//	method        - The solver, "als" or "sgd". Default is "als".
//	n_epochs      - The number of iterations. Default is 10.
//	reg_u         - The regularization of user biases (ALS). Default is 15.
//	reg_i         - The regularization of item biases (ALS). Default is 10.
//	reg           - The regularization of biases (SGD). Default is 0.02.
//	learning_rate - The learning rate (SGD). Default is 0.005.
type Baseline struct {
	BaseRatingModel
	UserBias []float64 // b_u
	ItemBias []float64 // b_i
	// Hyper-parameters
	method       string
	nEpochs      int
	regUser      float64
	regItem      float64
	reg          float64
	learningRate float64
}

// NewBaseline creates a baseline model.
func NewBaseline(params model.Params) *Baseline {
	baseline := new(Baseline)
	baseline.SetParams(params)
	return baseline
}

// SetParams sets hyper-parameters of the baseline model.
func (baseline *Baseline) SetParams(params model.Params) {
	baseline.BaseRatingModel.SetParams(params)
	options := baseline.Params.Flatten()
	baseline.method = options.GetString(model.Method, ALS)
	baseline.nEpochs = options.GetInt(model.NEpochs, 10)
	baseline.regUser = options.GetFloat64(model.RegUser, 15)
	baseline.regItem = options.GetFloat64(model.RegItem, 10)
	baseline.reg = options.GetFloat64(model.RegBias, 0.02)
	baseline.learningRate = options.GetFloat64(model.LearningRate, 0.005)
}

// GetParamsGrid returns the option sets compared by the baseline search.
func (baseline *Baseline) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{
		{Name: model.BaselineOpts, Values: []interface{}{
			model.Params{model.Method: ALS, model.NEpochs: 5, model.RegUser: 10, model.RegItem: 10},
			model.Params{model.Method: ALS, model.NEpochs: 10, model.RegUser: 10, model.RegItem: 10},
			model.Params{model.Method: ALS, model.NEpochs: 20, model.RegUser: 10, model.RegItem: 10},
			model.Params{model.Method: ALS, model.NEpochs: 10, model.RegUser: 5, model.RegItem: 10},
			model.Params{model.Method: ALS, model.NEpochs: 10, model.RegUser: 15, model.RegItem: 10},
			model.Params{model.Method: SGD, model.NEpochs: 5, model.LearningRate: 0.005},
			model.Params{model.Method: SGD, model.NEpochs: 10, model.LearningRate: 0.005},
			model.Params{model.Method: SGD, model.NEpochs: 20, model.LearningRate: 0.005},
			model.Params{model.Method: SGD, model.NEpochs: 10, model.LearningRate: 0.001},
			model.Params{model.Method: SGD, model.NEpochs: 10, model.LearningRate: 0.01},
		}},
	}
}

func (baseline *Baseline) validate() error {
	if baseline.method != ALS && baseline.method != SGD {
		return errors.NotValidf("baseline method %q", baseline.method)
	}
	if baseline.nEpochs < 0 {
		return errors.NotValidf("number of epochs %d", baseline.nEpochs)
	}
	return nil
}

// Fit the baseline model.
func (baseline *Baseline) Fit(ctx context.Context, trainSet *dataset.Dataset) error {
	if err := baseline.validate(); err != nil {
		return errors.Trace(err)
	}
	baseline.Init(trainSet)
	baseline.UserBias = make([]float64, trainSet.CountUsers())
	baseline.ItemBias = make([]float64, trainSet.CountItems())
	var userRatings, itemRatings [][]int32
	if baseline.method == ALS {
		userRatings = trainSet.GetUserRatings()
		itemRatings = trainSet.GetItemRatings()
	}
	for epoch := 0; epoch < baseline.nEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		switch baseline.method {
		case ALS:
			baseline.fitALS(trainSet, userRatings, itemRatings)
		case SGD:
			baseline.fitSGD(trainSet)
		}
	}
	return nil
}

func (baseline *Baseline) fitALS(trainSet *dataset.Dataset, userRatings, itemRatings [][]int32) {
	// update user biases
	for userIndex, indices := range userRatings {
		sum := 0.0
		for _, i := range indices {
			_, itemIndex, value := trainSet.Get(int(i))
			sum += value - baseline.GlobalMean - baseline.ItemBias[itemIndex]
		}
		baseline.UserBias[userIndex] = sum / (baseline.regUser + float64(len(indices)))
	}
	// update item biases
	for itemIndex, indices := range itemRatings {
		sum := 0.0
		for _, i := range indices {
			userIndex, _, value := trainSet.Get(int(i))
			sum += value - baseline.GlobalMean - baseline.UserBias[userIndex]
		}
		baseline.ItemBias[itemIndex] = sum / (baseline.regItem + float64(len(indices)))
	}
}

func (baseline *Baseline) fitSGD(trainSet *dataset.Dataset) {
	for i := 0; i < trainSet.Count(); i++ {
		userIndex, itemIndex, value := trainSet.Get(i)
		userBias := baseline.UserBias[userIndex]
		itemBias := baseline.ItemBias[itemIndex]
		diff := value - (baseline.GlobalMean + userBias + itemBias)
		baseline.UserBias[userIndex] += baseline.learningRate * (diff - baseline.reg*userBias)
		baseline.ItemBias[itemIndex] += baseline.learningRate * (diff - baseline.reg*itemBias)
	}
}

// Predict by the baseline model.
func (baseline *Baseline) Predict(userId, itemId string) float64 {
	userIndex, itemIndex := baseline.lookup(userId, itemId)
	return baseline.internalPredict(userIndex, itemIndex)
}

func (baseline *Baseline) internalPredict(userIndex, itemIndex int32) float64 {
	prediction := baseline.GlobalMean
	if baseline.IsUserPredictable(userIndex) {
		prediction += baseline.UserBias[userIndex]
	}
	if baseline.IsItemPredictable(itemIndex) {
		prediction += baseline.ItemBias[itemIndex]
	}
	return baseline.Scale.Clip(prediction)
}

func (baseline *Baseline) Clear() {
	baseline.BaseRatingModel.Clear()
	baseline.UserBias = nil
	baseline.ItemBias = nil
}

// Marshal model into byte stream.
func (baseline *Baseline) Marshal(w io.Writer) error {
	if err := baseline.BaseRatingModel.Marshal(w); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteVector(w, baseline.UserBias); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(encoding.WriteVector(w, baseline.ItemBias))
}

// Unmarshal model from byte stream.
func (baseline *Baseline) Unmarshal(r io.Reader) error {
	var err error
	if err = baseline.BaseRatingModel.Unmarshal(r); err != nil {
		return errors.Trace(err)
	}
	baseline.SetParams(baseline.Params)
	if baseline.UserBias, err = encoding.ReadVector(r); err != nil {
		return errors.Trace(err)
	}
	if baseline.ItemBias, err = encoding.ReadVector(r); err != nil {
		return errors.Trace(err)
	}
	return nil
}
