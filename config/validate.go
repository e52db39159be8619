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
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report mapstructure names in errors
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("rating_scale", validateRatingScale); err != nil {
		panic(err)
	}
	return v
}

// validateRatingScale checks that a rating scale is (low, high) with low < high.
func validateRatingScale(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice || field.Len() != 2 {
		return false
	}
	return field.Index(0).Float() < field.Index(1).Float()
}

// Validate the configuration.
func (config *Config) Validate() error {
	if err := validate.Struct(config); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make([]string, len(validationErrors))
			for i, fieldError := range validationErrors {
				fields[i] = fieldError.Namespace() + " (" + fieldError.Tag() + ")"
			}
			return errors.NotValidf("config %s", strings.Join(fields, ", "))
		}
		return errors.Trace(err)
	}
	return nil
}
