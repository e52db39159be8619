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
	"gonum.org/v1/gonum/floats"

	"github.com/gorse-io/tuner/base/encoding"
	"github.com/gorse-io/tuner/dataset"
	"github.com/gorse-io/tuner/model"
)

// SVD is the matrix factorization popularized by Simon Funk. The prediction is
//
//	\hat{r}_{ui} = \mu + b_u + b_i + q_i^Tp_u
//
// and parameters are learned by stochastic gradient descent on the regularized
// squared error.
//
// Hyper-parameters:
//
//	n_factors    - The number of latent factors. Default is 100.
//	n_epochs     - The number of iterations of SGD. Default is 20.
//	lr_all       - The learning rate of all parameters. Default is 0.005.
//	reg_all      - The regularization of all parameters. Default is 0.02.
//	init_mean    - The mean of initial latent factors. Default is 0.
//	init_std_dev - The standard deviation of initial latent factors. Default is 0.1.
//	biased       - Whether to learn biases. Default is true.
type SVD struct {
	BaseRatingModel
	UserBias   []float64   // b_u
	ItemBias   []float64   // b_i
	UserFactor [][]float64 // p_u
	ItemFactor [][]float64 // q_i
	// Hyper-parameters
	nFactors   int
	nEpochs    int
	lr         float64
	reg        float64
	initMean   float64
	initStdDev float64
	biased     bool
}

// NewSVD creates a SVD model.
func NewSVD(params model.Params) *SVD {
	svd := new(SVD)
	svd.SetParams(params)
	return svd
}

// SetParams sets hyper-parameters of the SVD model.
func (svd *SVD) SetParams(params model.Params) {
	svd.BaseRatingModel.SetParams(params)
	svd.nFactors = svd.Params.GetInt(model.NFactors, 100)
	svd.nEpochs = svd.Params.GetInt(model.NEpochs, 20)
	svd.lr = svd.Params.GetFloat64(model.Lr, 0.005)
	svd.reg = svd.Params.GetFloat64(model.Reg, 0.02)
	svd.initMean = svd.Params.GetFloat64(model.InitMean, 0)
	svd.initStdDev = svd.Params.GetFloat64(model.InitStdDev, 0.1)
	svd.biased = svd.Params.GetBool(model.Biased, true)
}

// GetParamsGrid returns the grid compared by the SVD search.
func (svd *SVD) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{
		{Name: model.NEpochs, Values: []interface{}{20, 50, 100}},
		{Name: model.NFactors, Values: []interface{}{10, 300, 1000}},
		{Name: model.Lr, Values: []interface{}{0.005}},
		{Name: model.Reg, Values: []interface{}{0.02}},
	}
}

func (svd *SVD) validate() error {
	if svd.nFactors <= 0 {
		return errors.NotValidf("number of factors %d", svd.nFactors)
	}
	if svd.nEpochs < 0 {
		return errors.NotValidf("number of epochs %d", svd.nEpochs)
	}
	return nil
}

// Fit the SVD model.
func (svd *SVD) Fit(ctx context.Context, trainSet *dataset.Dataset) error {
	if err := svd.validate(); err != nil {
		return errors.Trace(err)
	}
	svd.Init(trainSet)
	rng := svd.GetRandomGenerator()
	svd.UserBias = make([]float64, trainSet.CountUsers())
	svd.ItemBias = make([]float64, trainSet.CountItems())
	svd.UserFactor = make([][]float64, trainSet.CountUsers())
	for i := range svd.UserFactor {
		svd.UserFactor[i] = make([]float64, svd.nFactors)
		for k := range svd.UserFactor[i] {
			svd.UserFactor[i][k] = rng.NormFloat64()*svd.initStdDev + svd.initMean
		}
	}
	svd.ItemFactor = make([][]float64, trainSet.CountItems())
	for i := range svd.ItemFactor {
		svd.ItemFactor[i] = make([]float64, svd.nFactors)
		for k := range svd.ItemFactor[i] {
			svd.ItemFactor[i][k] = rng.NormFloat64()*svd.initStdDev + svd.initMean
		}
	}
	// Create buffers
	a := make([]float64, svd.nFactors)
	b := make([]float64, svd.nFactors)
	for epoch := 0; epoch < svd.nEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		for i := 0; i < trainSet.Count(); i++ {
			userIndex, itemIndex, value := trainSet.Get(i)
			userFactor := svd.UserFactor[userIndex]
			itemFactor := svd.ItemFactor[itemIndex]
			prediction := svd.GlobalMean + floats.Dot(userFactor, itemFactor)
			if svd.biased {
				prediction += svd.UserBias[userIndex] + svd.ItemBias[itemIndex]
			}
			diff := value - prediction
			// Update biases
			if svd.biased {
				svd.UserBias[userIndex] += svd.lr * (diff - svd.reg*svd.UserBias[userIndex])
				svd.ItemBias[itemIndex] += svd.lr * (diff - svd.reg*svd.ItemBias[itemIndex])
			}
			// Update latent factors: p_u += lr * (diff * q_i - reg * p_u)
			floats.ScaleTo(a, diff, itemFactor)
			floats.AddScaled(a, -svd.reg, userFactor)
			// q_i += lr * (diff * p_u - reg * q_i)
			floats.ScaleTo(b, diff, userFactor)
			floats.AddScaled(b, -svd.reg, itemFactor)
			floats.AddScaled(userFactor, svd.lr, a)
			floats.AddScaled(itemFactor, svd.lr, b)
		}
	}
	return nil
}

// Predict by the SVD model.
func (svd *SVD) Predict(userId, itemId string) float64 {
	userIndex, itemIndex := svd.lookup(userId, itemId)
	return svd.internalPredict(userIndex, itemIndex)
}

func (svd *SVD) internalPredict(userIndex, itemIndex int32) float64 {
	prediction := svd.GlobalMean
	userPredictable := svd.IsUserPredictable(userIndex)
	itemPredictable := svd.IsItemPredictable(itemIndex)
	if svd.biased {
		if userPredictable {
			prediction += svd.UserBias[userIndex]
		}
		if itemPredictable {
			prediction += svd.ItemBias[itemIndex]
		}
	}
	if userPredictable && itemPredictable {
		prediction += floats.Dot(svd.UserFactor[userIndex], svd.ItemFactor[itemIndex])
	}
	return svd.Scale.Clip(prediction)
}

func (svd *SVD) Clear() {
	svd.BaseRatingModel.Clear()
	svd.UserBias = nil
	svd.ItemBias = nil
	svd.UserFactor = nil
	svd.ItemFactor = nil
}

// Marshal model into byte stream.
func (svd *SVD) Marshal(w io.Writer) error {
	if err := svd.BaseRatingModel.Marshal(w); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteVector(w, svd.UserBias); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteVector(w, svd.ItemBias); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteMatrix(w, svd.UserFactor); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(encoding.WriteMatrix(w, svd.ItemFactor))
}

// Unmarshal model from byte stream.
func (svd *SVD) Unmarshal(r io.Reader) error {
	var err error
	if err = svd.BaseRatingModel.Unmarshal(r); err != nil {
		return errors.Trace(err)
	}
	svd.SetParams(svd.Params)
	if svd.UserBias, err = encoding.ReadVector(r); err != nil {
		return errors.Trace(err)
	}
	if svd.ItemBias, err = encoding.ReadVector(r); err != nil {
		return errors.Trace(err)
	}
	if svd.UserFactor, err = encoding.ReadMatrix(r); err != nil {
		return errors.Trace(err)
	}
	if svd.ItemFactor, err = encoding.ReadMatrix(r); err != nil {
		return errors.Trace(err)
	}
	return nil
}
