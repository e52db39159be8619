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

package model

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/gorse-io/tuner/base/log"
	"go.uber.org/zap"
)

// ParamName is the type of hyper-parameter names.
type ParamName string

// Predefined hyper-parameter names
const (
	NEpochs       ParamName = "n_epochs"      // number of epochs
	NFactors      ParamName = "n_factors"     // number of factors
	Lr            ParamName = "lr_all"        // learning rate of all parameters
	Reg           ParamName = "reg_all"       // regularization of all parameters
	InitMean      ParamName = "init_mean"     // mean of gaussian initial parameter
	InitStdDev    ParamName = "init_std_dev"  // standard deviation of gaussian initial parameter
	Biased        ParamName = "biased"        // use user and item biases
	NUserClusters ParamName = "n_cltr_u"      // number of user clusters
	NItemClusters ParamName = "n_cltr_i"      // number of item clusters
	Method        ParamName = "method"        // baseline solver, "als" or "sgd"
	RegUser       ParamName = "reg_u"         // regularization of user biases (ALS)
	RegItem       ParamName = "reg_i"         // regularization of item biases (ALS)
	RegBias       ParamName = "reg"           // regularization of biases (SGD)
	LearningRate  ParamName = "learning_rate" // learning rate of biases (SGD)
	BaselineOpts  ParamName = "bsl_options"   // nested baseline options
	RandomState   ParamName = "random_state"  // random seed
)

// Params stores hyper-parameters for a model. It is a map between names and
// values. Values are ints, floats, strings, bools or nested Params. For example,
// hyper-parameters for SVD are given by:
//
//	model.Params{
//		model.NEpochs:  20,
//		model.NFactors: 100,
//		model.Lr:       0.005,
//		model.Reg:      0.02,
//	}
type Params map[ParamName]interface{}

func init() {
	gob.Register(Params{})
}

// Copy hyper-parameters. Nested Params are copied too.
func (parameters Params) Copy() Params {
	newParams := make(Params, len(parameters))
	for k, v := range parameters {
		if nested, ok := v.(Params); ok {
			newParams[k] = nested.Copy()
		} else {
			newParams[k] = v
		}
	}
	return newParams
}

// GetInt gets an integer parameter by name. Returns _default if not exists or type doesn't match.
// Integral floats (as decoded from JSON or TOML) are accepted.
func (parameters Params) GetInt(name ParamName, _default int) int {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int:
			return val
		case int32:
			return int(val)
		case int64:
			return int(val)
		case float64:
			if val == float64(int(val)) {
				return int(val)
			}
		}
		log.Logger().Error("type mismatch",
			zap.String("param", string(name)),
			zap.String("expect", "int"),
			zap.String("actual", reflect.TypeOf(val).String()))
	}
	return _default
}

// GetInt64 gets an int64 parameter by name. Returns _default if not exists or type doesn't match.
func (parameters Params) GetInt64(name ParamName, _default int64) int64 {
	if _, exist := parameters[name]; exist {
		return int64(parameters.GetInt(name, int(_default)))
	}
	return _default
}

// GetFloat64 gets a float parameter by name. Returns _default if not exists or type doesn't match.
func (parameters Params) GetFloat64(name ParamName, _default float64) float64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case float64:
			return val
		case float32:
			return float64(val)
		case int:
			return float64(val)
		case int64:
			return float64(val)
		default:
			log.Logger().Error("type mismatch",
				zap.String("param", string(name)),
				zap.String("expect", "float64"),
				zap.String("actual", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// GetBool gets a bool parameter by name. Returns _default if not exists or type doesn't match.
func (parameters Params) GetBool(name ParamName, _default bool) bool {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case bool:
			return val
		default:
			log.Logger().Error("type mismatch",
				zap.String("param", string(name)),
				zap.String("expect", "bool"),
				zap.String("actual", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// GetString gets a string parameter. Returns _default if not exists or type doesn't match.
func (parameters Params) GetString(name ParamName, _default string) string {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case string:
			return val
		default:
			log.Logger().Error("type mismatch",
				zap.String("param", string(name)),
				zap.String("expect", "string"),
				zap.String("actual", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// GetParams gets nested hyper-parameters. Returns an empty Params if not exists.
// Nested maps decoded from configuration files are converted.
func (parameters Params) GetParams(name ParamName) Params {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case Params:
			return val
		case map[string]interface{}:
			nested := make(Params, len(val))
			for k, v := range val {
				nested[ParamName(k)] = v
			}
			return nested
		default:
			log.Logger().Error("type mismatch",
				zap.String("param", string(name)),
				zap.String("expect", "params"),
				zap.String("actual", reflect.TypeOf(val).String()))
		}
	}
	return Params{}
}

// Overwrite returns a new Params with values of params replacing values of parameters.
func (parameters Params) Overwrite(params Params) Params {
	merged := make(Params, len(parameters)+len(params))
	for k, v := range parameters {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	return merged
}

// Flatten lifts nested hyper-parameters to the top level. A nested value shadows
// a top-level value with the same name.
func (parameters Params) Flatten() Params {
	flat := make(Params, len(parameters))
	var nested []Params
	for k, v := range parameters {
		switch v.(type) {
		case Params, map[string]interface{}:
			nested = append(nested, parameters.GetParams(k))
		default:
			flat[k] = v
		}
	}
	for _, n := range nested {
		for k, v := range n.Flatten() {
			flat[k] = v
		}
	}
	return flat
}

// Format the value of a hyper-parameter for reports. Missing values are empty.
func (parameters Params) Format(name ParamName) string {
	if val, exist := parameters[name]; exist {
		return fmt.Sprint(val)
	}
	return ""
}

// ToString encodes hyper-parameters to JSON with sorted keys.
func (parameters Params) ToString() string {
	b, err := json.Marshal(parameters)
	if err != nil {
		log.Logger().Error("failed to encode params", zap.Error(err))
		return fmt.Sprint(map[ParamName]interface{}(parameters))
	}
	return string(b)
}

// Names returns sorted names of hyper-parameters.
func (parameters Params) Names() []ParamName {
	names := make([]ParamName, 0, len(parameters))
	for name := range parameters {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i] < names[j]
	})
	return names
}

// ParamValues are the candidates of one hyper-parameter.
type ParamValues struct {
	Name   ParamName
	Values []interface{}
}

// ParamsGrid contains candidates for grid search. The order of entries is the
// order of enumeration: the first entry varies slowest.
type ParamsGrid []ParamValues

// Len returns the number of hyper-parameters in the grid.
func (grid ParamsGrid) Len() int {
	return len(grid)
}

// NumCombinations returns the size of the Cartesian product of the grid.
func (grid ParamsGrid) NumCombinations() int {
	n := 1
	for _, param := range grid {
		n *= len(param.Values)
	}
	return n
}

// Names returns hyper-parameter names in declared order.
func (grid ParamsGrid) Names() []ParamName {
	names := make([]ParamName, len(grid))
	for i, param := range grid {
		names[i] = param.Name
	}
	return names
}

// Fill appends hyper-parameters of _default missing in the grid.
func (grid ParamsGrid) Fill(_default ParamsGrid) ParamsGrid {
	filled := append(ParamsGrid{}, grid...)
	for _, param := range _default {
		exist := false
		for _, p := range grid {
			if p.Name == param.Name {
				exist = true
				break
			}
		}
		if !exist {
			filled = append(filled, param)
		}
	}
	return filled
}
