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
	"errors"
	"math"

	"github.com/penny-vault/pvopt/covariance"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// degeneratePenalty scales the objective of candidates whose variance is not positive
const degeneratePenalty = 1e10

// objective evaluates f(w). When grad is non-nil it also stores df/dw in grad.
type objective func(w, grad []float64) float64

// degenerate is the objective at a candidate whose variance is not positive. It grows as the variance falls and its
// gradient points toward larger variance (d variance / dw = 2 cov w) so the search can move back out.
func degenerate(variance float64, marginal, grad []float64) float64 {
	for ii := range grad {
		grad[ii] = -2 * degeneratePenalty * marginal[ii]
	}
	return degeneratePenalty * (1 - variance)
}

// solution is a converged search result
type solution struct {
	z      []float64
	w      []float64
	f      float64
	status optimize.Status
}

// minimize searches the simplex {w : w_i >= 0, sum(w) = 1} for the minimum of obj. The search runs over an
// unconstrained parameter z with w = softmax(z) so that every iterate satisfies the constraints. z0 is the
// starting point; a zero vector starts from equal weights.
func (s *Solver) minimize(variant Variant, cov *covariance.Matrix, z0 []float64, obj objective) (*solution, error) {
	n := len(z0)
	w := make([]float64, n)
	g := make([]float64, n)

	problem := optimize.Problem{
		Func: func(z []float64) float64 {
			softmax(w, z)
			return obj(w, nil)
		},
		Grad: func(grad, z []float64) {
			softmax(w, z)
			obj(w, g)
			softmaxGradient(grad, w, g)
		},
	}

	var (
		lastX      []float64
		lastStatus = optimize.NotTerminated
		lastErr    error
		degenErr   *OptimizationError
	)

	start := z0
	for _, method := range s.Config.methods() {
		result, err := optimize.Minimize(problem, start, s.Config.settings(), method)
		if result != nil {
			lastX = result.X
			lastStatus = result.Status
			if finite(result.X) {
				// the fallback picks up where the primary method stopped
				start = result.X
			}
		}
		lastErr = err

		if err == nil && result != nil && converged(result.Status) {
			sol := &solution{
				z:      result.X,
				w:      make([]float64, n),
				f:      result.F,
				status: result.Status,
			}
			softmax(sol.w, result.X)

			// a flat start (e.g. equal weights on a symmetric indefinite matrix) stops at once; let the fallback move
			if variance := Variance(sol.w, cov); !(variance > 0) {
				degenErr = &OptimizationError{
					Variant: variant,
					Status:  result.Status,
					Last:    &Weights{Assets: copyStrings(cov.Assets), Values: sol.w},
					Err:     ErrDegenerateCovariance,
				}
				log.Debug().Str("Variant", string(variant)).Str("Method", methodName(method)).Float64("Variance", variance).
					Msg("solver stopped at a point without positive variance")
				continue
			}

			log.Debug().Str("Variant", string(variant)).Str("Method", methodName(method)).Str("Status", result.Status.String()).
				Int("MajorIterations", result.Stats.MajorIterations).Float64("Objective", result.F).Msg("solver converged")
			return sol, nil
		}

		log.Debug().Str("Variant", string(variant)).Str("Method", methodName(method)).Str("Status", lastStatus.String()).
			AnErr("Cause", err).Msg("solver did not converge")
	}

	if degenErr != nil {
		return nil, degenErr
	}

	if lastErr == nil {
		lastErr = errors.New("status " + lastStatus.String() + " is not a convergence status")
	}

	last := make([]float64, n)
	if lastX != nil {
		softmax(last, lastX)
	} else {
		softmax(last, z0)
	}

	return nil, &OptimizationError{
		Variant: variant,
		Status:  lastStatus,
		Last:    &Weights{Assets: copyStrings(cov.Assets), Values: last},
		Err:     lastErr,
	}
}

// softmax stores exp(z) / sum(exp(z)) in w
func softmax(w, z []float64) {
	zMax := floats.Max(z)
	total := 0.0
	for ii, v := range z {
		w[ii] = math.Exp(v - zMax)
		total += w[ii]
	}
	floats.Scale(1/total, w)
}

// softmaxGradient maps df/dw to df/dz: dz_k = w_k * (g_k - g . w)
func softmaxGradient(dz, w, g []float64) {
	gw := floats.Dot(g, w)
	for kk := range dz {
		dz[kk] = w[kk] * (g[kk] - gw)
	}
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success, optimize.GradientThreshold, optimize.FunctionConvergence, optimize.MethodConverge, optimize.StepConvergence:
		return true
	default:
		return false
	}
}

func finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func methodName(method optimize.Method) string {
	switch method.(type) {
	case *optimize.BFGS:
		return MethodBFGS
	case *optimize.LBFGS:
		return MethodLBFGS
	case *optimize.NelderMead:
		return MethodNelderMead
	default:
		return "unknown"
	}
}
