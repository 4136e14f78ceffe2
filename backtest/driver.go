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

package backtest

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/pvopt/dataframe"
	"github.com/penny-vault/pvopt/observability/opentelemetry"
	"github.com/penny-vault/pvopt/portfolio"
	"github.com/penny-vault/pvopt/strategies"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultWindowSize = 12
)

// Driver runs a plan over rolling estimation windows and scores each allocation out of sample
type Driver struct {
	Plan       *strategies.Plan
	Solver     *portfolio.Solver
	WindowSize int
	Workers    int
}

// Result of a backtest run. Returns holds one row per scored period (indexed from period WindowSize on) and one
// column per recipe; Weights holds the allocation table estimated on each window.
type Result struct {
	ID      uuid.UUID
	Returns *dataframe.DataFrame[time.Time]
	Weights []*dataframe.DataFrame[string]
	Windows []Window
}

func NewDriver(plan *strategies.Plan, solver *portfolio.Solver) *Driver {
	return &Driver{
		Plan:       plan,
		Solver:     solver,
		WindowSize: DefaultWindowSize,
		Workers:    runtime.NumCPU(),
	}
}

// Run backtests the plan on returns. caps, when not nil, holds one market cap per column of returns. The first
// failing window aborts the run; partial results are never returned.
func (d *Driver) Run(ctx context.Context, returns *dataframe.DataFrame[time.Time], caps []float64) (*Result, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "backtest.Run")
	defer span.End()

	if d.Plan == nil || d.Solver == nil {
		span.SetStatus(codes.Error, "driver is missing a plan or solver")
		return nil, fmt.Errorf("%w: driver requires a plan and a solver", ErrInvalidConfiguration)
	}

	if err := returns.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid return series")
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfiguration, err.Error())
	}

	size := d.WindowSize
	if size == 0 {
		size = DefaultWindowSize
	}

	windows, err := Windows(returns.Len(), size)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cannot generate windows")
		return nil, err
	}

	workers := d.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	result := &Result{
		ID:      uuid.New(),
		Weights: make([]*dataframe.DataFrame[string], len(windows)),
		Windows: windows,
	}

	span.SetAttributes(
		attribute.String("ID", result.ID.String()),
		attribute.Int("Periods", returns.Len()),
		attribute.Int("Assets", returns.ColCount()),
		attribute.Int("WindowSize", size),
		attribute.Int("Windows", len(windows)),
	)

	subLog := log.With().Str("BacktestID", result.ID.String()).Logger()
	subLog.Debug().Int("Windows", len(windows)).Int("WindowSize", size).Int("Workers", workers).Msg("starting backtest")
	start := time.Now()

	rows := make([][]float64, len(windows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, w := range windows {
		w := w
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			table, err := d.evaluate(gctx, returns, w, caps)
			if err != nil {
				return err
			}

			realized := returns.Row(w.End)
			row := make([]float64, table.ColCount())
			for colIdx, col := range table.Vals {
				row[colIdx] = floats.Dot(col, realized)
			}

			rows[w.Index] = row
			result.Weights[w.Index] = table
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backtest failed")
		return nil, err
	}

	names := d.Plan.RecipeNames()
	index := make([]time.Time, len(windows))
	copy(index, returns.Index[size:])

	result.Returns = &dataframe.DataFrame[time.Time]{
		Index:    index,
		ColNames: names,
		Vals:     make([][]float64, len(names)),
	}

	for colIdx := range names {
		col := make([]float64, len(rows))
		for rowIdx, row := range rows {
			col[rowIdx] = row[colIdx]
		}
		result.Returns.Vals[colIdx] = col
	}

	subLog.Info().Dur("Duration", time.Since(start).Round(time.Millisecond)).Int("Periods", len(index)).Msg("backtest complete")
	return result, nil
}

func (d *Driver) evaluate(ctx context.Context, returns *dataframe.DataFrame[time.Time], w Window, caps []float64) (*dataframe.DataFrame[string], error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "backtest.Window")
	defer span.End()

	span.SetAttributes(
		attribute.Int("Window", w.Index),
		attribute.Int("Start", w.Start),
		attribute.Int("End", w.End),
	)

	view, err := returns.Window(w.Start, w.End)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid window")
		return nil, &WindowError{Window: w, Err: err}
	}

	table, err := d.Plan.Compute(ctx, d.Solver, view, caps)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "plan failed")
		log.Debug().Object("Window", w).Err(err).Msg("plan failed on window")

		werr := &WindowError{Window: w, Err: err}
		var recipeErr *strategies.RecipeError
		if errors.As(err, &recipeErr) {
			werr.Recipe = recipeErr.Recipe
		}
		return nil, werr
	}

	return table, nil
}
