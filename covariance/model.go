// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
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

package covariance

import (
	"fmt"
	"strings"
	"time"

	"github.com/penny-vault/pvopt/dataframe"
)

// Model identifies a covariance estimator. The string values are the labels used in weight table column names.
type Model string

const (
	SampleModel              Model = "Sample"
	ConstantCorrelationModel Model = "CCM"
	ShrinkageModel           Model = "Shrinkage"
)

// Options holds the parameters of the estimators that take any
type Options struct {
	Delta float64
}

// Models returns every supported model in canonical order
func Models() []Model {
	return []Model{SampleModel, ConstantCorrelationModel, ShrinkageModel}
}

// ParseModel converts a model name to a Model. Matching is case-insensitive and accepts the long form
// "ConstantCorrelation" as well as the historical misspelling "Shrinage".
func ParseModel(name string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sample":
		return SampleModel, nil
	case "ccm", "constantcorrelation", "constant-correlation":
		return ConstantCorrelationModel, nil
	case "shrinkage", "shrinage":
		return ShrinkageModel, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
}

// UnmarshalText lets models be decoded directly from TOML and JSON documents
func (m *Model) UnmarshalText(text []byte) error {
	model, err := ParseModel(string(text))
	if err != nil {
		return err
	}
	*m = model
	return nil
}

// Estimate dispatches to the estimator identified by model
func Estimate(model Model, r *dataframe.DataFrame[time.Time], opts Options) (*Matrix, error) {
	switch model {
	case SampleModel:
		return Sample(r)
	case ConstantCorrelationModel:
		return ConstantCorrelation(r)
	case ShrinkageModel:
		return Shrinkage(r, opts.Delta)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, string(model))
	}
}
