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

package config

import (
	"runtime"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/spf13/viper"

	"github.com/gorse-io/tuner/model"
)

// Config is the configuration of the tuner.
type Config struct {
	Data   DataConfig      `mapstructure:"data"`
	Search SearchConfig    `mapstructure:"search"`
	Output OutputConfig    `mapstructure:"output"`
	Plot   PlotConfig      `mapstructure:"plot"`
	S3     S3Config        `mapstructure:"s3"`
	GCS    GCSConfig       `mapstructure:"gcs"`
	Azure  AzureBlobConfig `mapstructure:"azure"`
}

// DataConfig is the configuration of the ratings source.
type DataConfig struct {
	Source          string    `mapstructure:"source"`
	Table           string    `mapstructure:"table" validate:"required"`
	UserColumn      string    `mapstructure:"user_column" validate:"required"`
	ItemColumn      string    `mapstructure:"item_column" validate:"required"`
	RatingColumn    string    `mapstructure:"rating_column" validate:"required"`
	TimestampColumn string    `mapstructure:"timestamp_column"`
	Separator       string    `mapstructure:"separator" validate:"len=1"`
	Header          bool      `mapstructure:"header"`
	Format          string    `mapstructure:"format"`
	RatingScale     []float64 `mapstructure:"rating_scale" validate:"len=2,rating_scale"`
	MaxRetries      int       `mapstructure:"max_retries" validate:"gte=0"`
}

// SearchConfig is the configuration of hyper-parameter search.
type SearchConfig struct {
	Model       string       `mapstructure:"model" validate:"oneof=svd coclustering baseline"`
	Strategy    string       `mapstructure:"strategy" validate:"oneof=grid tpe"`
	NTrials     int          `mapstructure:"n_trials" validate:"gt=0"`
	NFolds      int          `mapstructure:"n_folds" validate:"gte=2"`
	NJobs       int          `mapstructure:"n_jobs" validate:"gt=0"`
	RandomState int64        `mapstructure:"random_state"`
	Grid        []GridConfig `mapstructure:"grid" validate:"unique=Name,dive"`
}

// GridConfig is the list of values of one hyper-parameter.
type GridConfig struct {
	Name   string        `mapstructure:"name" validate:"required"`
	Values []interface{} `mapstructure:"values"`
}

// OutputConfig is the configuration of the artifact store.
type OutputConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// PlotConfig is the configuration of the RMSE comparison plot.
type PlotConfig struct {
	Input  string  `mapstructure:"input"`
	Output string  `mapstructure:"output"`
	Group  string  `mapstructure:"group" validate:"required"`
	X      string  `mapstructure:"x" validate:"required"`
	Title  string  `mapstructure:"title"`
	XLabel string  `mapstructure:"x_label"`
	YLabel string  `mapstructure:"y_label"`
	Width  float64 `mapstructure:"width" validate:"gt=0"`
	Height float64 `mapstructure:"height" validate:"gt=0"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

type GCSConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

type AzureBlobConfig struct {
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	Endpoint         string `mapstructure:"endpoint"`
	ConnectionString string `mapstructure:"connection_string"`
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Table:        "ratings",
			UserColumn:   "userID",
			ItemColumn:   "itemID",
			RatingColumn: "rating",
			Separator:    ",",
			Header:       true,
			Format:       "uir",
			RatingScale:  []float64{1, 5},
			MaxRetries:   3,
		},
		Search: SearchConfig{
			Model:    "svd",
			Strategy: "grid",
			NTrials:  10,
			NFolds:   5,
			NJobs:    runtime.NumCPU(),
		},
		Output: OutputConfig{
			Dir: ".",
		},
		Plot: PlotConfig{
			Group:  string(model.NFactors),
			X:      string(model.NEpochs),
			YLabel: "RMSE",
			Width:  10,
			Height: 6,
		},
	}
}

// ParamsGrid converts the configured grid to a hyper-parameter grid. Tables of
// values become nested hyper-parameters.
func (config *SearchConfig) ParamsGrid() model.ParamsGrid {
	grid := make(model.ParamsGrid, 0, len(config.Grid))
	for _, param := range config.Grid {
		values := make([]interface{}, len(param.Values))
		for i, value := range param.Values {
			values[i] = toParamValue(value)
		}
		grid = append(grid, model.ParamValues{Name: model.ParamName(param.Name), Values: values})
	}
	return grid
}

func toParamValue(value interface{}) interface{} {
	if m, ok := value.(map[string]interface{}); ok {
		params := make(model.Params, len(m))
		for k, v := range m {
			params[model.ParamName(k)] = toParamValue(v)
		}
		return params
	}
	return value
}

func setDefault() {
	defaultConfig := GetDefaultConfig()
	// [data]
	viper.SetDefault("data.table", defaultConfig.Data.Table)
	viper.SetDefault("data.user_column", defaultConfig.Data.UserColumn)
	viper.SetDefault("data.item_column", defaultConfig.Data.ItemColumn)
	viper.SetDefault("data.rating_column", defaultConfig.Data.RatingColumn)
	viper.SetDefault("data.separator", defaultConfig.Data.Separator)
	viper.SetDefault("data.header", defaultConfig.Data.Header)
	viper.SetDefault("data.format", defaultConfig.Data.Format)
	viper.SetDefault("data.rating_scale", defaultConfig.Data.RatingScale)
	viper.SetDefault("data.max_retries", defaultConfig.Data.MaxRetries)
	// [search]
	viper.SetDefault("search.model", defaultConfig.Search.Model)
	viper.SetDefault("search.strategy", defaultConfig.Search.Strategy)
	viper.SetDefault("search.n_trials", defaultConfig.Search.NTrials)
	viper.SetDefault("search.n_folds", defaultConfig.Search.NFolds)
	viper.SetDefault("search.n_jobs", defaultConfig.Search.NJobs)
	viper.SetDefault("search.random_state", defaultConfig.Search.RandomState)
	// [output]
	viper.SetDefault("output.dir", defaultConfig.Output.Dir)
	// [plot]
	viper.SetDefault("plot.group", defaultConfig.Plot.Group)
	viper.SetDefault("plot.x", defaultConfig.Plot.X)
	viper.SetDefault("plot.y_label", defaultConfig.Plot.YLabel)
	viper.SetDefault("plot.width", defaultConfig.Plot.Width)
	viper.SetDefault("plot.height", defaultConfig.Plot.Height)
}

type configBinding struct {
	key string
	env string
}

func bindEnv() {
	bindings := []configBinding{
		{"data.source", "GORSE_TUNER_DATA_SOURCE"},
		{"data.table", "GORSE_TUNER_DATA_TABLE"},
		{"search.model", "GORSE_TUNER_SEARCH_MODEL"},
		{"search.n_jobs", "GORSE_TUNER_SEARCH_N_JOBS"},
		{"output.dir", "GORSE_TUNER_OUTPUT_DIR"},
		{"s3.endpoint", "S3_ENDPOINT"},
		{"s3.access_key_id", "S3_ACCESS_KEY_ID"},
		{"s3.secret_access_key", "S3_SECRET_ACCESS_KEY"},
		{"gcs.credentials_file", "GCS_CREDENTIALS_FILE"},
		{"azure.connection_string", "AZURE_STORAGE_CONNECTION_STRING"},
	}
	for _, binding := range bindings {
		_ = viper.BindEnv(binding.key, binding.env)
	}
}

// LoadConfig loads configuration from a TOML or YAML file. Values may be
// overridden by environment variables prefixed with GORSE_TUNER_. An empty path
// loads defaults and environment variables only.
func LoadConfig(path string) (*Config, error) {
	viper.Reset()
	setDefault()
	viper.SetEnvPrefix("GORSE_TUNER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindEnv()
	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "read config %s", path)
		}
	}
	var conf Config
	if err := viper.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}
