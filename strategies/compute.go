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
)

// Compute estimates every covariance and expected return model the plan uses once for window and then solves
// every recipe. The result is a weight table indexed by asset with one column per recipe. caps must either be nil
// or hold one market cap per column of window; it is required when any recipe needs cap weights.
func (plan *Plan) Compute(ctx context.Context, solver *portfolio.Solver, window *dataframe.DataFrame[time.Time], caps []float64) (*dataframe.DataFrame[string], error) {
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("invalid return window: %w", err)
	}

	recipes := plan.Recipes()
	assets := make([]string, window.ColCount())
	copy(assets, window.ColNames)

	if caps == nil && plan.NeedsCaps() {
		return nil, ErrMissingMarketCaps
	}

	var capWeights *portfolio.Weights
	if caps != nil {
		var err error
		if capWeights, err = portfolio.CapWeight(assets, caps); err != nil {
			return nil, err
		}
	}

	table := &dataframe.DataFrame[string]{
		Index: assets,
	}

	// a single asset universe always holds 100% of that asset
	if len(assets) == 1 {
		for _, r := range recipes {
			table.Insert(r.Name(), []float64{1.0})
		}
		return table, nil
	}

	covs := make(map[covariance.Model]*covariance.Matrix)
	estimateCov := func(model covariance.Model) (*covariance.Matrix, error) {
		if cov, ok := covs[model]; ok {
			return cov, nil
		}
		cov, err := covariance.Estimate(model, window, covariance.Options{Delta: plan.ShrinkageDelta})
		if err != nil {
			return nil, err
		}
		covs[model] = cov
		return cov, nil
	}

	ers := make(map[expected.Model]*expected.Vector)
	estimateExpected := func(model expected.Model) (*expected.Vector, error) {
		if er, ok := ers[model]; ok {
			return er, nil
		}

		opts := expected.Options{
			PeriodsPerYear: plan.PeriodsPerYear,
			Span:           plan.Span,
			RiskAversion:   plan.RiskAversion,
		}

		if model == expected.ImpliedModel {
			cov, err := estimateCov(plan.ImpliedCovariance)
			if err != nil {
				return nil, err
			}
			opts.Covariance = cov
			opts.CapWeights = capWeights.Values
		}

		er, err := expected.Estimate(model, window, opts)
		if err != nil {
			return nil, err
		}
		ers[model] = er
		return er, nil
	}

	for _, r := range recipes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req := portfolio.Request{
			Variant:  r.Variant,
			Assets:   assets,
			RiskFree: plan.RiskFreeRate,
		}

		if capWeights != nil {
			req.Caps = caps
		}

		if r.Variant.NeedsCovariance() {
			cov, err := estimateCov(r.Covariance)
			if err != nil {
				return nil, &RecipeError{Recipe: r.Name(), Err: err}
			}
			req.Covariance = cov
		}

		if r.Variant.NeedsExpectedReturns() {
			er, err := estimateExpected(r.Expected)
			if err != nil {
				return nil, &RecipeError{Recipe: r.Name(), Err: err}
			}
			req.Expected = er
		}

		w, err := solver.Solve(ctx, req)
		if err != nil {
			return nil, &RecipeError{Recipe: r.Name(), Err: err}
		}

		if err := w.Validate(); err != nil {
			log.Error().Err(err).Str("Recipe", r.Name()).Msg("solver produced invalid weights")
			return nil, &RecipeError{Recipe: r.Name(), Err: err}
		}

		table.Insert(r.Name(), w.Values)
	}

	return table, nil
}
