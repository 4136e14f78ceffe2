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

	"github.com/penny-vault/pvopt/covariance"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	targetReturnVariant Variant = "TargetReturn"

	frontierPenalty   = 1000.0
	frontierRounds    = 30
	frontierTolerance = 1e-7
)

// MinimizeVolatility finds the minimum volatility portfolio whose expected return equals target, i.e. the point
// of the efficient frontier at target. The return constraint is enforced with an augmented Lagrangian: each round
// minimizes vol(w) + lambda*gap + P/2*gap^2 and then moves lambda by P*gap until the gap closes.
func (s *Solver) MinimizeVolatility(cov *covariance.Matrix, er []float64, target float64) (*Weights, error) {
	if err := checkCovariance(cov); err != nil {
		return nil, err
	}

	if len(er) != cov.Len() {
		return nil, fmt.Errorf("%w: covariance has %d assets but %d expected returns were given", ErrDimensionMismatch, cov.Len(), len(er))
	}

	if !finite(er) || math.IsNaN(target) {
		return nil, fmt.Errorf("%w: expected returns and target must be finite", ErrInvalidConfiguration)
	}

	lo, hi := floats.Min(er), floats.Max(er)
	if target < lo || target > hi {
		return nil, fmt.Errorf("%w: target return %v is outside the attainable range [%v, %v]", ErrInvalidConfiguration, target, lo, hi)
	}

	if cov.Len() == 1 {
		return single(cov), nil
	}

	// only the assets with the extreme return can reach an extreme target
	if target == lo || target == hi {
		return s.extremeTarget(cov, er, target)
	}

	z := make([]float64, cov.Len())
	lambda := 0.0
	var last *solution
	for round := 0; round < frontierRounds; round++ {
		sol, err := s.minimize(targetReturnVariant, cov, z, penalizedVolatility(cov, er, target, lambda))
		if err != nil {
			return nil, err
		}

		last = sol
		z = sol.z
		gap := Return(sol.w, er) - target
		if math.Abs(gap) < frontierTolerance {
			return &Weights{Assets: copyStrings(cov.Assets), Values: sol.w}, nil
		}
		lambda += frontierPenalty * gap
	}

	return nil, &OptimizationError{
		Variant: targetReturnVariant,
		Status:  last.status,
		Last:    &Weights{Assets: copyStrings(cov.Assets), Values: last.w},
		Err:     fmt.Errorf("return constraint not satisfied after %d rounds", frontierRounds),
	}
}

// extremeTarget solves the minimum variance portfolio over the assets whose expected return equals target; every
// other asset gets a weight of 0
func (s *Solver) extremeTarget(cov *covariance.Matrix, er []float64, target float64) (*Weights, error) {
	idx := make([]int, 0, len(er))
	for ii, v := range er {
		if v == target {
			idx = append(idx, ii)
		}
	}

	sub := &covariance.Matrix{
		Assets: make([]string, len(idx)),
		Sym:    mat.NewSymDense(len(idx), nil),
	}
	for ii, src := range idx {
		sub.Assets[ii] = cov.Assets[src]
		for jj := ii; jj < len(idx); jj++ {
			sub.Sym.SetSym(ii, jj, cov.At(src, idx[jj]))
		}
	}

	subWeights, err := s.GMV(sub)
	if err != nil {
		return nil, err
	}

	res := &Weights{
		Assets: copyStrings(cov.Assets),
		Values: make([]float64, cov.Len()),
	}
	for ii, src := range idx {
		res.Values[src] = subWeights.Values[ii]
	}
	return res, nil
}

// penalizedVolatility is vol(w) + lambda*gap + P/2*gap^2 where gap = w.er - target
func penalizedVolatility(cov *covariance.Matrix, er []float64, target, lambda float64) objective {
	return func(w, grad []float64) float64 {
		marginal := marginalRisk(w, cov)
		variance := floats.Dot(w, marginal)
		if !(variance > 0) {
			return degenerate(variance, marginal, grad)
		}

		vol := math.Sqrt(variance)
		gap := Return(w, er) - target

		if grad != nil {
			scale := lambda + frontierPenalty*gap
			for ii := range grad {
				grad[ii] = marginal[ii]/vol + scale*er[ii]
			}
		}

		return vol + lambda*gap + frontierPenalty/2*gap*gap
	}
}
