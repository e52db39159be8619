// Copyright 2020 gorse Project Authors
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
	"math"

	"github.com/juju/errors"

	"github.com/gorse-io/tuner/base/encoding"
	"github.com/gorse-io/tuner/dataset"
	"github.com/gorse-io/tuner/model"
)

// CoClustering is a collaborative filtering approach based on weighted
// co-clustering that clusters users and items simultaneously.
//
// Let A be the ratings matrix and \rho, \gamma the user and item cluster
// assignments. The approximate rating is given by
//
//	\hat{A}_{ij} = A^{COC}_{gh} + (A^R_i - A^{RC}_g) + (A^C_j - A^{CC}_h)
//
// where g=\rho(i), h=\gamma(j) and A^R_i, A^C_j are the average ratings of user
// i and item j, and A^{COC}_{gh}, A^{RC}_g and A^{CC}_h are the average ratings of
// the corresponding co-cluster, user-cluster and item-cluster respectively.
//
// Hyper-parameters:
//
//	n_epochs     - The number of iterations of the optimization procedure. Default is 20.
//	n_cltr_u     - The number of user clusters. Default is 3.
//	n_cltr_i     - The number of item clusters. Default is 3.
//	random_state - The random seed. Default is 0.
type CoClustering struct {
	BaseRatingModel
	UserMeans        []float64   // A^{R}
	ItemMeans        []float64   // A^{C}
	UserClusters     []int       // \rho(i)
	ItemClusters     []int       // \gamma(j)
	UserClusterMeans []float64   // A^{RC}
	ItemClusterMeans []float64   // A^{CC}
	CoClusterMeans   [][]float64 // A^{COC}
	// Hyper-parameters
	nUserClusters int
	nItemClusters int
	nEpochs       int
}

// NewCoClustering creates a CoClustering model.
func NewCoClustering(params model.Params) *CoClustering {
	coc := new(CoClustering)
	coc.SetParams(params)
	return coc
}

// SetParams sets hyper-parameters for the CoClustering model.
func (coc *CoClustering) SetParams(params model.Params) {
	coc.BaseRatingModel.SetParams(params)
	coc.nUserClusters = coc.Params.GetInt(model.NUserClusters, 3)
	coc.nItemClusters = coc.Params.GetInt(model.NItemClusters, 3)
	coc.nEpochs = coc.Params.GetInt(model.NEpochs, 20)
}

// GetParamsGrid returns the grid compared by the co-clustering search.
func (coc *CoClustering) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{
		{Name: model.NUserClusters, Values: []interface{}{2, 3, 4}},
		{Name: model.NItemClusters, Values: []interface{}{2, 3, 4}},
		{Name: model.NEpochs, Values: []interface{}{10, 20, 30}},
	}
}

func (coc *CoClustering) validate() error {
	if coc.nUserClusters <= 0 {
		return errors.NotValidf("number of user clusters %d", coc.nUserClusters)
	}
	if coc.nItemClusters <= 0 {
		return errors.NotValidf("number of item clusters %d", coc.nItemClusters)
	}
	if coc.nEpochs < 0 {
		return errors.NotValidf("number of epochs %d", coc.nEpochs)
	}
	return nil
}

// Predict by the CoClustering model.
func (coc *CoClustering) Predict(userId, itemId string) float64 {
	userIndex, itemIndex := coc.lookup(userId, itemId)
	return coc.internalPredict(userIndex, itemIndex)
}

func (coc *CoClustering) internalPredict(userIndex, itemIndex int32) float64 {
	prediction := 0.0
	userPredictable := coc.IsUserPredictable(userIndex)
	itemPredictable := coc.IsItemPredictable(itemIndex)
	if userPredictable && itemPredictable {
		// old user & old item
		userCluster := coc.UserClusters[userIndex]
		itemCluster := coc.ItemClusters[itemIndex]
		prediction = coc.UserMeans[userIndex] + coc.ItemMeans[itemIndex] -
			coc.UserClusterMeans[userCluster] - coc.ItemClusterMeans[itemCluster] +
			coc.CoClusterMeans[userCluster][itemCluster]
	} else if userPredictable {
		// old user & new item
		prediction = coc.UserMeans[userIndex]
	} else if itemPredictable {
		// new user & old item
		prediction = coc.ItemMeans[itemIndex]
	} else {
		// new user & new item
		prediction = coc.GlobalMean
	}
	return coc.Scale.Clip(prediction)
}

// Fit the CoClustering model.
func (coc *CoClustering) Fit(ctx context.Context, trainSet *dataset.Dataset) error {
	if err := coc.validate(); err != nil {
		return errors.Trace(err)
	}
	coc.Init(trainSet)
	rng := coc.GetRandomGenerator()
	userRatings := trainSet.GetUserRatings()
	itemRatings := trainSet.GetItemRatings()
	coc.UserMeans = coc.means(trainSet, userRatings)
	coc.ItemMeans = coc.means(trainSet, itemRatings)
	coc.UserClusters = make([]int, trainSet.CountUsers())
	for i := range coc.UserClusters {
		coc.UserClusters[i] = rng.Intn(coc.nUserClusters)
	}
	coc.ItemClusters = make([]int, trainSet.CountItems())
	for i := range coc.ItemClusters {
		coc.ItemClusters[i] = rng.Intn(coc.nItemClusters)
	}
	coc.UserClusterMeans = make([]float64, coc.nUserClusters)
	coc.ItemClusterMeans = make([]float64, coc.nItemClusters)
	coc.CoClusterMeans = make([][]float64, coc.nUserClusters)
	for i := range coc.CoClusterMeans {
		coc.CoClusterMeans[i] = make([]float64, coc.nItemClusters)
	}
	// Clustering
	for ep := 0; ep < coc.nEpochs; ep++ {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		// Compute averages A^{COC}, A^{RC}, A^{CC}
		coc.clusterMean(trainSet, coc.UserClusterMeans, coc.UserClusters, userRatings)
		coc.clusterMean(trainSet, coc.ItemClusterMeans, coc.ItemClusters, itemRatings)
		coc.coClusterMean(trainSet)
		// Update row (user) cluster assignments
		for userIndex, indices := range userRatings {
			bestCluster, leastCost := coc.UserClusters[userIndex], math.Inf(1)
			for g := 0; g < coc.nUserClusters; g++ {
				cost := 0.0
				for _, i := range indices {
					_, itemIndex, value := trainSet.Get(int(i))
					itemCluster := coc.ItemClusters[itemIndex]
					prediction := coc.UserMeans[userIndex] + coc.ItemMeans[itemIndex] -
						coc.UserClusterMeans[g] - coc.ItemClusterMeans[itemCluster] +
						coc.CoClusterMeans[g][itemCluster]
					temp := prediction - value
					cost += temp * temp
				}
				if cost < leastCost {
					bestCluster = g
					leastCost = cost
				}
			}
			coc.UserClusters[userIndex] = bestCluster
		}
		// Update column (item) cluster assignments
		for itemIndex, indices := range itemRatings {
			bestCluster, leastCost := coc.ItemClusters[itemIndex], math.Inf(1)
			for h := 0; h < coc.nItemClusters; h++ {
				cost := 0.0
				for _, i := range indices {
					userIndex, _, value := trainSet.Get(int(i))
					userCluster := coc.UserClusters[userIndex]
					prediction := coc.UserMeans[userIndex] + coc.ItemMeans[itemIndex] -
						coc.UserClusterMeans[userCluster] - coc.ItemClusterMeans[h] +
						coc.CoClusterMeans[userCluster][h]
					temp := prediction - value
					cost += temp * temp
				}
				if cost < leastCost {
					bestCluster = h
					leastCost = cost
				}
			}
			coc.ItemClusters[itemIndex] = bestCluster
		}
	}
	// Averages of final assignments
	coc.clusterMean(trainSet, coc.UserClusterMeans, coc.UserClusters, userRatings)
	coc.clusterMean(trainSet, coc.ItemClusterMeans, coc.ItemClusters, itemRatings)
	coc.coClusterMean(trainSet)
	return nil
}

// means computes the mean rating of each group. Empty groups get the global mean.
func (coc *CoClustering) means(trainSet *dataset.Dataset, groups [][]int32) []float64 {
	means := make([]float64, len(groups))
	for id, indices := range groups {
		if len(indices) == 0 {
			means[id] = coc.GlobalMean
			continue
		}
		for _, i := range indices {
			_, _, value := trainSet.Get(int(i))
			means[id] += value
		}
		means[id] /= float64(len(indices))
	}
	return means
}

// clusterMean computes the mean ratings of clusters.
func (coc *CoClustering) clusterMean(trainSet *dataset.Dataset, dst []float64, clusters []int, groups [][]int32) {
	count := make([]float64, len(dst))
	for i := range dst {
		dst[i] = 0
	}
	for id, cluster := range clusters {
		for _, i := range groups[id] {
			_, _, value := trainSet.Get(int(i))
			dst[cluster] += value
			count[cluster]++
		}
	}
	for i := range dst {
		if count[i] > 0 {
			dst[i] /= count[i]
		} else {
			dst[i] = coc.GlobalMean
		}
	}
}

// coClusterMean computes the mean ratings of co-clusters.
func (coc *CoClustering) coClusterMean(trainSet *dataset.Dataset) {
	count := make([][]float64, coc.nUserClusters)
	for i := range count {
		count[i] = make([]float64, coc.nItemClusters)
		for j := range coc.CoClusterMeans[i] {
			coc.CoClusterMeans[i][j] = 0
		}
	}
	for i := 0; i < trainSet.Count(); i++ {
		userIndex, itemIndex, value := trainSet.Get(i)
		userCluster := coc.UserClusters[userIndex]
		itemCluster := coc.ItemClusters[itemIndex]
		count[userCluster][itemCluster]++
		coc.CoClusterMeans[userCluster][itemCluster] += value
	}
	for i := range coc.CoClusterMeans {
		for j := range coc.CoClusterMeans[i] {
			if count[i][j] > 0 {
				coc.CoClusterMeans[i][j] /= count[i][j]
			} else {
				coc.CoClusterMeans[i][j] = coc.GlobalMean
			}
		}
	}
}

func (coc *CoClustering) Clear() {
	coc.BaseRatingModel.Clear()
	coc.UserMeans = nil
	coc.ItemMeans = nil
	coc.UserClusters = nil
	coc.ItemClusters = nil
	coc.UserClusterMeans = nil
	coc.ItemClusterMeans = nil
	coc.CoClusterMeans = nil
}

// Marshal model into byte stream.
func (coc *CoClustering) Marshal(w io.Writer) error {
	if err := coc.BaseRatingModel.Marshal(w); err != nil {
		return errors.Trace(err)
	}
	for _, v := range [][]float64{coc.UserMeans, coc.ItemMeans, coc.UserClusterMeans, coc.ItemClusterMeans} {
		if err := encoding.WriteVector(w, v); err != nil {
			return errors.Trace(err)
		}
	}
	for _, v := range [][]int{coc.UserClusters, coc.ItemClusters} {
		if err := encoding.WriteInts(w, v); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(encoding.WriteMatrix(w, coc.CoClusterMeans))
}

// Unmarshal model from byte stream.
func (coc *CoClustering) Unmarshal(r io.Reader) error {
	var err error
	if err = coc.BaseRatingModel.Unmarshal(r); err != nil {
		return errors.Trace(err)
	}
	coc.SetParams(coc.Params)
	for _, v := range []*[]float64{&coc.UserMeans, &coc.ItemMeans, &coc.UserClusterMeans, &coc.ItemClusterMeans} {
		if *v, err = encoding.ReadVector(r); err != nil {
			return errors.Trace(err)
		}
	}
	for _, v := range []*[]int{&coc.UserClusters, &coc.ItemClusters} {
		if *v, err = encoding.ReadInts(r); err != nil {
			return errors.Trace(err)
		}
	}
	if coc.CoClusterMeans, err = encoding.ReadMatrix(r); err != nil {
		return errors.Trace(err)
	}
	return nil
}
