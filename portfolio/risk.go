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
	"math"

	"github.com/penny-vault/pvopt/covariance"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Return computes the expected portfolio return w . er
func Return(w, er []float64) float64 {
	return floats.Dot(w, er)
}

// Variance computes w' cov w
func Variance(w []float64, cov *covariance.Matrix) float64 {
	x := mat.NewVecDense(len(w), w)
	return mat.Inner(x, cov.Sym, x)
}

// Volatility computes sqrt(w' cov w). The result is NaN if the variance is negative, which can only happen for a
// covariance matrix that is not positive semi-definite.
func Volatility(w []float64, cov *covariance.Matrix) float64 {
	return math.Sqrt(Variance(w, cov))
}

// RiskContribution returns each asset's share of the total portfolio variance: (cov w) * w / variance. The
// contributions sum to 1 whenever the variance is positive.
func RiskContribution(w []float64, cov *covariance.Matrix) []float64 {
	marginal := marginalRisk(w, cov)
	variance := floats.Dot(w, marginal)

	res := make([]float64, len(w))
	floats.MulTo(res, marginal, w)
	floats.Scale(1/variance, res)
	return res
}

// marginalRisk returns cov w
func marginalRisk(w []float64, cov *covariance.Matrix) []float64 {
	res := mat.NewVecDense(len(w), nil)
	res.MulVec(cov.Sym, mat.NewVecDense(len(w), w))
	return res.RawVector().Data
}
