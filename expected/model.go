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

package expected

import (
	"fmt"
	"strings"
	"time"

	"github.com/penny-vault/pvopt/covariance"
	"github.com/penny-vault/pvopt/dataframe"
)

// Model identifies an expected return estimator. The string values are the labels used in weight table column
// names.
type Model string

const (
	AverageModel Model = "Average"
	EWMAModel    Model = "EWMA"
	ImpliedModel Model = "Implied"
)

// Options configures Estimate
type Options struct {
	PeriodsPerYear float64
	Span           float64
	RiskAversion   float64

	// Covariance and CapWeights are only needed by the implied model
	Covariance *covariance.Matrix
	CapWeights []float64
}

// Models returns every supported model in canonical order
func Models() []Model {
	return []Model{AverageModel, EWMAModel, ImpliedModel}
}

// ParseModel converts a model name to a Model (case-insensitive)
func ParseModel(name string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "average", "annualized":
		return AverageModel, nil
	case "ewma":
		return EWMAModel, nil
	case "implied", "blm":
		return ImpliedModel, nil
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

// NeedsCaps reports whether the model requires market cap weights
func (m Model) NeedsCaps() bool {
	return m == ImpliedModel
}

// Estimate dispatches to the estimator identified by model
func Estimate(model Model, r *dataframe.DataFrame[time.Time], opts Options) (*Vector, error) {
	switch model {
	case AverageModel:
		return Annualized(r, opts.PeriodsPerYear)
	case EWMAModel:
		return ExponentiallyWeighted(r, opts.Span, opts.PeriodsPerYear)
	case ImpliedModel:
		if opts.Covariance == nil {
			return nil, fmt.Errorf("%w: implied returns need a covariance matrix", ErrInvalidConfiguration)
		}
		return Implied(opts.Covariance, opts.CapWeights, opts.RiskAversion)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, string(model))
	}
}
