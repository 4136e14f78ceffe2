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

package strategies

import (
	"context"
	"fmt"
	"time"

	"github.com/penny-vault/pvopt/covariance"
	"github.com/penny-vault/pvopt/dataframe"
	"github.com/penny-vault/pvopt/expected"
	"github.com/penny-vault/pvopt/portfolio"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// FrontierPoint is one portfolio on the efficient frontier
type FrontierPoint struct {
	Return     float64
	Volatility float64
	Weights    *portfolio.Weights
}

// Frontier traces the efficient frontier of window with points portfolios whose target returns are evenly spaced
// between the lowest and highest expected return. It uses the first covariance and expected return model of the
// plan; caps are only needed when that expected return model is implied.
func (plan *Plan) Frontier(ctx context.Context, solver *portfolio.Solver, window *dataframe.DataFrame[time.Time], caps []float64, points int) ([]*FrontierPoint, error) {
	if points < 2 {
		return nil, fmt.Errorf("%w: frontier needs at least 2 points, got %d", portfolio.ErrInvalidConfiguration, points)
	}

	if len(plan.Covariances) == 0 {
		return nil, ErrMissingCovariance
	}

	if len(plan.ExpectedReturns) == 0 {
		return nil, ErrMissingExpectedModel
	}

	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("invalid return window: %w", err)
	}

	covModel := plan.Covariances[0]
	erModel := plan.ExpectedReturns[0]

	cov, err := covariance.Estimate(covModel, window, covariance.Options{Delta: plan.ShrinkageDelta})
	if err != nil {
		return nil, err
	}

	opts := expected.Options{
		PeriodsPerYear: plan.PeriodsPerYear,
		Span:           plan.Span,
		RiskAversion:   plan.RiskAversion,
	}

	if erModel.NeedsCaps() {
		if caps == nil {
			return nil, ErrMissingMarketCaps
		}

		capWeights, err := portfolio.CapWeight(window.ColNames, caps)
		if err != nil {
			return nil, err
		}

		if opts.Covariance, err = covariance.Estimate(plan.ImpliedCovariance, window, covariance.Options{Delta: plan.ShrinkageDelta}); err != nil {
			return nil, err
		}
		opts.CapWeights = capWeights.Values
	}

	er, err := expected.Estimate(erModel, window, opts)
	if err != nil {
		return nil, err
	}

	targets := make([]float64, points)
	floats.Span(targets, floats.Min(er.Values), floats.Max(er.Values))

	frontier := make([]*FrontierPoint, 0, points)
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		w, err := solver.MinimizeVolatility(cov, er.Values, target)
		if err != nil {
			log.Debug().Err(err).Float64("Target", target).Str("Covariance", string(covModel)).Str("Expected", string(erModel)).Msg("frontier point failed")
			return nil, err
		}

		frontier = append(frontier, &FrontierPoint{
			Return:     portfolio.Return(w.Values, er.Values),
			Volatility: portfolio.Volatility(w.Values, cov),
			Weights:    w,
		})
	}

	return frontier, nil
}
