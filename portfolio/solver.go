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
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/penny-vault/pvopt/covariance"
	"github.com/penny-vault/pvopt/expected"
	"gonum.org/v1/gonum/floats"
)

// Solver turns covariance matrices and expected returns into long-only weight vectors
type Solver struct {
	Config SolverConfig
}

// Request bundles the inputs of a single Solve call. Expected is only read by MSR and Caps only by CW.
type Request struct {
	Variant    Variant
	Covariance *covariance.Matrix
	Expected   *expected.Vector
	Caps       []float64
	Assets     []string
	RiskFree   float64
}

// NewSolver validates cfg and returns a solver using it
func NewSolver(cfg SolverConfig) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Solver{Config: cfg}, nil
}

// Solve dispatches the request to the variant it names
func (s *Solver) Solve(ctx context.Context, req Request) (*Weights, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch req.Variant {
	case MSR:
		if req.Covariance == nil || req.Expected == nil {
			return nil, fmt.Errorf("%w: MSR needs a covariance matrix and expected returns", ErrInvalidConfiguration)
		}
		return s.MSR(req.Covariance, req.Expected.Values, req.RiskFree)
	case GMV:
		if req.Covariance == nil {
			return nil, fmt.Errorf("%w: GMV needs a covariance matrix", ErrInvalidConfiguration)
		}
		return s.GMV(req.Covariance)
	case ERC:
		if req.Covariance == nil {
			return nil, fmt.Errorf("%w: ERC needs a covariance matrix", ErrInvalidConfiguration)
		}
		return s.ERC(req.Covariance)
	case EW:
		return EqualWeight(req.assets())
	case CW:
		return CapWeight(req.assets(), req.Caps)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, string(req.Variant))
	}
}

func (req Request) assets() []string {
	if len(req.Assets) != 0 {
		return req.Assets
	}
	if req.Covariance != nil {
		return req.Covariance.Assets
	}
	if req.Expected != nil {
		return req.Expected.Assets
	}
	return nil
}

// MSR finds the maximum Sharpe ratio portfolio by minimizing -(w.er - riskFree) / vol(w)
func (s *Solver) MSR(cov *covariance.Matrix, er []float64, riskFree float64) (*Weights, error) {
	if err := checkCovariance(cov); err != nil {
		return nil, err
	}

	if len(er) != cov.Len() {
		return nil, fmt.Errorf("%w: covariance has %d assets but %d expected returns were given", ErrDimensionMismatch, cov.Len(), len(er))
	}

	if math.IsNaN(riskFree) || math.IsInf(riskFree, 0) || !finite(er) {
		return nil, fmt.Errorf("%w: expected returns and risk free rate must be finite", ErrInvalidConfiguration)
	}

	if cov.Len() == 1 {
		return single(cov), nil
	}

	sol, err := s.minimize(MSR, cov, make([]float64, cov.Len()), negativeSharpe(cov, er, riskFree))
	if err != nil {
		return nil, err
	}

	return &Weights{Assets: copyStrings(cov.Assets), Values: sol.w}, nil
}

// GMV finds the global minimum variance portfolio. It is exactly MSR with a vector of ones as the expected returns
// and a zero risk free rate: the excess return of every portfolio is then 1 so maximizing the Sharpe ratio
// minimizes volatility.
func (s *Solver) GMV(cov *covariance.Matrix) (*Weights, error) {
	if err := checkCovariance(cov); err != nil {
		return nil, err
	}

	ones := make([]float64, cov.Len())
	for ii := range ones {
		ones[ii] = 1
	}

	w, err := s.MSR(cov, ones, 0)
	if err != nil {
		var optErr *OptimizationError
		if errors.As(err, &optErr) {
			optErr.Variant = GMV
		}
		return nil, err
	}
	return w, nil
}

// ERC finds the equal risk contribution portfolio by minimizing the mean squared deviation of each asset's risk
// contribution from 1/n
func (s *Solver) ERC(cov *covariance.Matrix) (*Weights, error) {
	if err := checkCovariance(cov); err != nil {
		return nil, err
	}

	if cov.Len() == 1 {
		return single(cov), nil
	}

	sol, err := s.minimize(ERC, cov, make([]float64, cov.Len()), riskParity(cov))
	if err != nil {
		return nil, err
	}

	return &Weights{Assets: copyStrings(cov.Assets), Values: sol.w}, nil
}

// negativeSharpe is the MSR objective. df/dw = -er/vol + (w.er - rf) cov w / vol^3
func negativeSharpe(cov *covariance.Matrix, er []float64, riskFree float64) objective {
	return func(w, grad []float64) float64 {
		marginal := marginalRisk(w, cov)
		variance := floats.Dot(w, marginal)
		if !(variance > 0) {
			return degenerate(variance, marginal, grad)
		}

		vol := math.Sqrt(variance)
		excess := Return(w, er) - riskFree

		if grad != nil {
			vol3 := vol * variance
			for ii := range grad {
				grad[ii] = -er[ii]/vol + excess*marginal[ii]/vol3
			}
		}

		return -excess / vol
	}
}

// riskParity is the ERC objective f = 1/n sum_i (rc_i - 1/n)^2 with rc_i = w_i (cov w)_i / variance. With
// d = rc - 1/n and m = cov w:
//
//	df/dw_k = 2/n * (d_k m_k / v + (cov (d*w))_k / v - 2 m_k sum_i(d_i w_i m_i) / v^2)
func riskParity(cov *covariance.Matrix) objective {
	n := float64(cov.Len())
	return func(w, grad []float64) float64 {
		marginal := marginalRisk(w, cov)
		variance := floats.Dot(w, marginal)
		if !(variance > 0) {
			return degenerate(variance, marginal, grad)
		}

		d := make([]float64, len(w))
		f := 0.0
		for ii := range w {
			d[ii] = w[ii]*marginal[ii]/variance - 1/n
			f += d[ii] * d[ii]
		}
		f /= n

		if grad != nil {
			dw := make([]float64, len(w))
			floats.MulTo(dw, d, w)
			covDW := marginalRisk(dw, cov)
			cross := floats.Dot(dw, marginal)
			for kk := range grad {
				grad[kk] = 2 / n * (d[kk]*marginal[kk]/variance + covDW[kk]/variance - 2*marginal[kk]*cross/(variance*variance))
			}
		}

		return f
	}
}

func checkCovariance(cov *covariance.Matrix) error {
	if cov == nil || cov.Len() == 0 {
		return ErrInsufficientData
	}

	if r, c := cov.Sym.Dims(); r != cov.Len() || c != cov.Len() {
		return fmt.Errorf("%w: covariance matrix is %dx%d but labels %d assets", ErrDimensionMismatch, r, c, cov.Len())
	}

	for ii := 0; ii < cov.Len(); ii++ {
		for jj := ii; jj < cov.Len(); jj++ {
			v := cov.At(ii, jj)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: covariance contains non-finite values", ErrInvalidConfiguration)
			}
		}
	}

	return nil
}

func single(cov *covariance.Matrix) *Weights {
	return &Weights{
		Assets: copyStrings(cov.Assets),
		Values: []float64{1.0},
	}
}
