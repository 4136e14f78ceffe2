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
	"math"
	"time"

	"github.com/penny-vault/pvopt/covariance"
	"github.com/penny-vault/pvopt/dataframe"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultRiskAversion is the conventional Black-Litterman market risk aversion coefficient
	DefaultRiskAversion = 2.5

	// DefaultSpan is the EWMA span used when none is configured
	DefaultSpan = 12.0
)

// Vector holds one expected return per asset
type Vector struct {
	Assets []string
	Values []float64
}

// Len returns the number of assets in the vector
func (v *Vector) Len() int {
	return len(v.Assets)
}

// Annualized computes the geometric annualized return of every column: (prod(1+r))^(ppy/n) - 1
func Annualized(r *dataframe.DataFrame[time.Time], periodsPerYear float64) (*Vector, error) {
	if periodsPerYear <= 0 || math.IsNaN(periodsPerYear) {
		return nil, fmt.Errorf("%w: periods per year must be positive, got %v", ErrInvalidConfiguration, periodsPerYear)
	}

	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid return series: %w", err)
	}

	if r.Len() == 0 {
		return nil, fmt.Errorf("%w: no periods to annualize", ErrInsufficientData)
	}

	growth := r.AddScalar(1).Prod()
	nPeriods := float64(r.Len())

	res := &Vector{
		Assets: make([]string, r.ColCount()),
		Values: make([]float64, r.ColCount()),
	}
	copy(res.Assets, r.ColNames)

	for ii, g := range growth {
		if g <= 0 {
			return nil, fmt.Errorf("%w: asset %s has compounded growth %v", ErrNonPositiveGrowth, r.ColNames[ii], g)
		}
		res.Values[ii] = math.Pow(g, periodsPerYear/nPeriods) - 1
	}

	return res, nil
}

// ExponentiallyWeighted annualizes the exponentially weighted moving average of each column rather than the raw
// returns. alpha = 2/(span+1), so recent periods dominate the estimate.
func ExponentiallyWeighted(r *dataframe.DataFrame[time.Time], span, periodsPerYear float64) (*Vector, error) {
	if span < 1 || math.IsNaN(span) {
		return nil, fmt.Errorf("%w: span must be >= 1, got %v", ErrInvalidConfiguration, span)
	}

	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid return series: %w", err)
	}

	return Annualized(r.EWMA(span), periodsPerYear)
}

// Implied reverse optimizes the expected returns that make the observed weights the maximum Sharpe portfolio
// under cov: riskAversion * cov * w. This is the prior step of the Black-Litterman model.
func Implied(cov *covariance.Matrix, observedWeights []float64, riskAversion float64) (*Vector, error) {
	if riskAversion <= 0 || math.IsNaN(riskAversion) {
		return nil, fmt.Errorf("%w: risk aversion must be positive, got %v", ErrInvalidConfiguration, riskAversion)
	}

	if cov.Len() != len(observedWeights) {
		return nil, fmt.Errorf("%w: covariance has %d assets but %d weights were observed", ErrDimensionMismatch, cov.Len(), len(observedWeights))
	}

	if cov.Len() == 0 {
		return nil, fmt.Errorf("%w: no assets", ErrInsufficientData)
	}

	w := mat.NewVecDense(len(observedWeights), observedWeights)
	pi := mat.NewVecDense(cov.Len(), nil)
	pi.MulVec(cov.Sym, w)
	pi.ScaleVec(riskAversion, pi)

	res := &Vector{
		Assets: make([]string, cov.Len()),
		Values: make([]float64, cov.Len()),
	}
	copy(res.Assets, cov.Assets)
	for ii := range res.Values {
		res.Values[ii] = pi.AtVec(ii)
	}

	return res, nil
}

// AnnualizedVolatility scales the sample standard deviation of each column by sqrt(periodsPerYear)
func AnnualizedVolatility(r *dataframe.DataFrame[time.Time], periodsPerYear float64) (*Vector, error) {
	if periodsPerYear <= 0 || math.IsNaN(periodsPerYear) {
		return nil, fmt.Errorf("%w: periods per year must be positive, got %v", ErrInvalidConfiguration, periodsPerYear)
	}

	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid return series: %w", err)
	}

	if r.Len() < 2 {
		return nil, fmt.Errorf("%w: volatility needs at least 2 periods, got %d", ErrInsufficientData, r.Len())
	}

	res := &Vector{
		Assets: make([]string, r.ColCount()),
		Values: r.StdDev(),
	}
	copy(res.Assets, r.ColNames)

	scale := math.Sqrt(periodsPerYear)
	for ii := range res.Values {
		res.Values[ii] *= scale
	}

	return res, nil
}
