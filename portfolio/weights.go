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

package portfolio

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// BudgetTolerance is the maximum distance between the sum of a weight vector and 1
const BudgetTolerance = 1e-6

// Weights is a long-only allocation over a set of assets
type Weights struct {
	Assets []string
	Values []float64
}

// Len returns the number of assets
func (w *Weights) Len() int {
	return len(w.Values)
}

// Sum returns the sum of all weights
func (w *Weights) Sum() float64 {
	return floats.Sum(w.Values)
}

// Validate checks that every weight lies in [0,1] and that the weights sum to 1
func (w *Weights) Validate() error {
	if len(w.Assets) != len(w.Values) {
		return fmt.Errorf("%w: %d assets but %d weights", ErrDimensionMismatch, len(w.Assets), len(w.Values))
	}

	for ii, v := range w.Values {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: weight of %s is %v", ErrInvalidWeights, w.Assets[ii], v)
		}
	}

	if sum := w.Sum(); math.Abs(sum-1) > BudgetTolerance {
		return fmt.Errorf("%w: weights sum to %v", ErrInvalidWeights, sum)
	}

	return nil
}

// Map returns the weights keyed by asset
func (w *Weights) Map() map[string]float64 {
	res := make(map[string]float64, len(w.Assets))
	for ii, asset := range w.Assets {
		res[asset] = w.Values[ii]
	}
	return res
}

// EqualWeight allocates 1/n to every asset
func EqualWeight(assets []string) (*Weights, error) {
	if len(assets) == 0 {
		return nil, ErrInsufficientData
	}

	res := &Weights{
		Assets: copyStrings(assets),
		Values: make([]float64, len(assets)),
	}
	for ii := range res.Values {
		res.Values[ii] = 1.0 / float64(len(assets))
	}
	return res, nil
}

// CapWeight allocates proportionally to market capitalization: cap_i / sum(cap)
func CapWeight(assets []string, caps []float64) (*Weights, error) {
	if len(assets) == 0 {
		return nil, ErrInsufficientData
	}

	if len(assets) != len(caps) {
		return nil, fmt.Errorf("%w: %d assets but %d market caps", ErrDimensionMismatch, len(assets), len(caps))
	}

	total := 0.0
	for ii, c := range caps {
		if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 {
			return nil, fmt.Errorf("%w: market cap of %s is %v", ErrInvalidConfiguration, assets[ii], c)
		}
		total += c
	}

	if total <= 0 {
		return nil, fmt.Errorf("%w: total market cap must be positive", ErrInvalidConfiguration)
	}

	res := &Weights{
		Assets: copyStrings(assets),
		Values: make([]float64, len(caps)),
	}
	for ii, c := range caps {
		res.Values[ii] = c / total
	}
	return res, nil
}

func copyStrings(in []string) []string {
	res := make([]string, len(in))
	copy(res, in)
	return res
}
