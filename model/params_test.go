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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_Copy(t *testing.T) {
	a := Params{
		NFactors:     1,
		Lr:           0.1,
		RandomState:  0,
		BaselineOpts: Params{Method: "als"},
	}
	b := a.Copy()
	b[NFactors] = 2
	b[Lr] = 0.2
	b[RandomState] = 1
	b[BaselineOpts].(Params)[Method] = "sgd"
	// Check original parameters
	assert.Equal(t, 1, a.GetInt(NFactors, -1))
	assert.Equal(t, 0.1, a.GetFloat64(Lr, -0.1))
	assert.Equal(t, int64(0), a.GetInt64(RandomState, -1))
	assert.Equal(t, "als", a.GetParams(BaselineOpts).GetString(Method, ""))
	// Check copy parameters
	assert.Equal(t, 2, b.GetInt(NFactors, -1))
	assert.Equal(t, 0.2, b.GetFloat64(Lr, -0.1))
	assert.Equal(t, int64(1), b.GetInt64(RandomState, -1))
	assert.Equal(t, "sgd", b.GetParams(BaselineOpts).GetString(Method, ""))
}

func TestParams_GetFloat64(t *testing.T) {
	p := Params{}
	// Empty case
	assert.Equal(t, 0.1, p.GetFloat64(Lr, 0.1))
	// Normal case
	p[Lr] = 1.0
	assert.Equal(t, 1.0, p.GetFloat64(Lr, 0.1))
	// Integer case
	p[Lr] = 1
	assert.Equal(t, 1.0, p.GetFloat64(Lr, 0.1))
	p[Lr] = int64(2)
	assert.Equal(t, 2.0, p.GetFloat64(Lr, 0.1))
	// Wrong type case
	p[Lr] = "hello"
	assert.Equal(t, 0.1, p.GetFloat64(Lr, 0.1))
}

func TestParams_GetInt(t *testing.T) {
	p := Params{}
	// Empty case
	assert.Equal(t, -1, p.GetInt(NFactors, -1))
	// Normal case
	p[NFactors] = 0
	assert.Equal(t, 0, p.GetInt(NFactors, -1))
	// Decoded case
	p[NFactors] = int64(10)
	assert.Equal(t, 10, p.GetInt(NFactors, -1))
	p[NFactors] = 20.0
	assert.Equal(t, 20, p.GetInt(NFactors, -1))
	// Wrong type case
	p[NFactors] = 2.5
	assert.Equal(t, -1, p.GetInt(NFactors, -1))
	p[NFactors] = "hello"
	assert.Equal(t, -1, p.GetInt(NFactors, -1))
}

func TestParams_GetInt64(t *testing.T) {
	p := Params{}
	// Empty case
	assert.Equal(t, int64(-1), p.GetInt64(RandomState, -1))
	// Normal case
	p[RandomState] = int64(0)
	assert.Equal(t, int64(0), p.GetInt64(RandomState, -1))
	p[RandomState] = 0
	assert.Equal(t, int64(0), p.GetInt64(RandomState, -1))
	// Wrong type case
	p[RandomState] = "hello"
	assert.Equal(t, int64(-1), p.GetInt64(RandomState, -1))
}

func TestParams_GetBool(t *testing.T) {
	p := Params{}
	assert.True(t, p.GetBool(Biased, true))
	p[Biased] = false
	assert.False(t, p.GetBool(Biased, true))
	p[Biased] = "hello"
	assert.True(t, p.GetBool(Biased, true))
}

func TestParams_GetString(t *testing.T) {
	p := Params{}
	assert.Equal(t, "als", p.GetString(Method, "als"))
	p[Method] = "sgd"
	assert.Equal(t, "sgd", p.GetString(Method, "als"))
	p[Method] = 1
	assert.Equal(t, "als", p.GetString(Method, "als"))
}

func TestParams_GetParams(t *testing.T) {
	p := Params{}
	assert.Empty(t, p.GetParams(BaselineOpts))
	p[BaselineOpts] = map[string]interface{}{"method": "sgd", "n_epochs": int64(5)}
	nested := p.GetParams(BaselineOpts)
	assert.Equal(t, "sgd", nested.GetString(Method, ""))
	assert.Equal(t, 5, nested.GetInt(NEpochs, 0))
}

func TestParams_Overwrite(t *testing.T) {
	a := Params{NEpochs: 10, NFactors: 5}
	b := a.Overwrite(Params{NFactors: 7, Lr: 0.1})
	assert.Equal(t, Params{NEpochs: 10, NFactors: 5}, a)
	assert.Equal(t, Params{NEpochs: 10, NFactors: 7, Lr: 0.1}, b)
}

func TestParams_Flatten(t *testing.T) {
	p := Params{
		RandomState: 0,
		BaselineOpts: Params{
			Method:  "als",
			NEpochs: 5,
			RegUser: 10,
		},
	}
	assert.Equal(t, Params{
		RandomState: 0,
		Method:      "als",
		NEpochs:     5,
		RegUser:     10,
	}, p.Flatten())
	assert.Equal(t, "als", p.Flatten().Format(Method))
	assert.Equal(t, "", p.Flatten().Format(LearningRate))
}

func TestParams_ToString(t *testing.T) {
	p := Params{NFactors: 5, NEpochs: 2, BaselineOpts: Params{Method: "sgd"}}
	assert.Equal(t, `{"bsl_options":{"method":"sgd"},"n_epochs":2,"n_factors":5}`, p.ToString())
	assert.Equal(t, []ParamName{BaselineOpts, NEpochs, NFactors}, p.Names())
}

func TestParamsGrid(t *testing.T) {
	grid := ParamsGrid{
		{Name: NEpochs, Values: []interface{}{1, 2, 3}},
		{Name: NFactors, Values: []interface{}{5, 10}},
	}
	assert.Equal(t, 2, grid.Len())
	assert.Equal(t, 6, grid.NumCombinations())
	assert.Equal(t, []ParamName{NEpochs, NFactors}, grid.Names())
	assert.Equal(t, 1, ParamsGrid{}.NumCombinations())
	assert.Equal(t, 0, ParamsGrid{{Name: Lr}}.NumCombinations())

	filled := grid.Fill(ParamsGrid{
		{Name: NFactors, Values: []interface{}{100}},
		{Name: Lr, Values: []interface{}{0.005}},
	})
	assert.Equal(t, []ParamName{NEpochs, NFactors, Lr}, filled.Names())
	assert.Equal(t, []interface{}{5, 10}, filled[1].Values)
	assert.Equal(t, 2, grid.Len())
}
