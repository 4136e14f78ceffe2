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

package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/pvopt/backtest"
	"github.com/penny-vault/pvopt/data"
	"github.com/penny-vault/pvopt/dataframe"
	"github.com/penny-vault/pvopt/observability/opentelemetry"
	"github.com/penny-vault/pvopt/portfolio"
	"github.com/penny-vault/pvopt/sink"
	"github.com/penny-vault/pvopt/strategies"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	StageReturns  = "returns"
	StageCaps     = "market caps"
	StageWeights  = "weights"
	StageBacktest = "backtest"
	StageSink     = "sink"
)

// Runner fetches the data of each identifier, computes its portfolios and hands the results to Sink. When Driver
// is set every identifier is also backtested and summarized.
type Runner struct {
	Returns data.ReturnDataSource
	Caps    data.MarketCapDataSource
	Sink    sink.PortfolioResultSink
	Plan    *strategies.Plan
	Solver  *portfolio.Solver
	Driver  *backtest.Driver
}

// Report lists the outcome of every identifier processed by Run
type Report struct {
	ID        uuid.UUID
	Succeeded []string
	Failures  []*IdentifierError
	Elapsed   time.Duration
}

// Failed is true when at least one identifier could not be processed
func (r *Report) Failed() bool {
	return len(r.Failures) > 0
}

// Outcome of a single identifier
type Outcome struct {
	Identifier string
	Weights    *dataframe.DataFrame[string]
	Backtest   *backtest.Result
	Summary    *dataframe.DataFrame[string]
}

// Run processes identifiers in order. With policy Skip failures are recorded in the report and the run continues;
// with Abort the first failure is returned. A cancelled context always stops the run.
func (r *Runner) Run(ctx context.Context, identifiers []string, policy Policy) (*Report, error) {
	report := &Report{
		ID:        uuid.New(),
		Succeeded: make([]string, 0, len(identifiers)),
		Failures:  []*IdentifierError{},
	}

	if len(identifiers) == 0 {
		return report, ErrNoIdentifiers
	}

	if r.Sink == nil {
		return report, ErrNoSink
	}

	subLog := log.With().Str("RunID", report.ID.String()).Str("Policy", policy.String()).Logger()
	start := time.Now()

	for _, identifier := range identifiers {
		if err := ctx.Err(); err != nil {
			report.Elapsed = time.Since(start)
			return report, err
		}

		outcome, err := r.Process(ctx, identifier)
		if err == nil {
			err = r.emit(ctx, outcome)
		}

		if err != nil {
			var idErr *IdentifierError
			if !errors.As(err, &idErr) {
				idErr = &IdentifierError{Identifier: identifier, Stage: StageSink, Err: err}
			}

			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || policy == Abort {
				subLog.Error().Err(err).Str("Identifier", identifier).Msg("run aborted")
				report.Failures = append(report.Failures, idErr)
				report.Elapsed = time.Since(start)
				return report, idErr
			}

			subLog.Warn().Err(err).Str("Identifier", identifier).Str("Stage", idErr.Stage).Msg("skipping identifier")
			report.Failures = append(report.Failures, idErr)
			continue
		}

		report.Succeeded = append(report.Succeeded, identifier)
	}

	report.Elapsed = time.Since(start)
	subLog.Info().Int("Succeeded", len(report.Succeeded)).Int("Failed", len(report.Failures)).Dur("Elapsed", report.Elapsed).Msg("run finished")
	return report, nil
}

// Process fetches the data of identifier and computes its full history weights and, when a driver is configured,
// its backtest. Nothing is written to the sink.
func (r *Runner) Process(ctx context.Context, identifier string) (*Outcome, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "runner.Process")
	defer span.End()
	span.SetAttributes(attribute.String("Identifier", identifier))

	fail := func(stage string, err error) (*Outcome, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, stage)
		return nil, &IdentifierError{Identifier: identifier, Stage: stage, Err: err}
	}

	if r.Returns == nil {
		return fail(StageReturns, ErrNoSource)
	}

	if r.Plan == nil || r.Solver == nil {
		return fail(StageWeights, fmt.Errorf("%w: runner requires a plan and a solver", portfolio.ErrInvalidConfiguration))
	}

	returns, err := r.Returns.GetReturns(ctx, identifier)
	if err != nil {
		return fail(StageReturns, err)
	}

	caps, err := r.marketCaps(ctx, identifier, returns.ColNames)
	if err != nil {
		return fail(StageCaps, err)
	}

	outcome := &Outcome{Identifier: identifier}

	outcome.Weights, err = r.Plan.Compute(ctx, r.Solver, returns, caps)
	if err != nil {
		return fail(StageWeights, err)
	}

	if r.Driver != nil {
		outcome.Backtest, err = r.Driver.Run(ctx, returns, caps)
		if err != nil {
			return fail(StageBacktest, err)
		}
		outcome.Summary = backtest.Summarize(outcome.Backtest.Returns, r.Plan.PeriodsPerYear, r.Plan.RiskFreeRate)
	}

	log.Debug().Str("Identifier", identifier).Int("Assets", returns.ColCount()).Int("Periods", returns.Len()).Msg("processed identifier")
	return outcome, nil
}

// marketCaps returns nil when the plan has no cap weighted recipe or no market cap source is configured; Compute
// reports recipes that need the missing caps
func (r *Runner) marketCaps(ctx context.Context, identifier string, assets []string) ([]float64, error) {
	if r.Caps == nil || !r.Plan.NeedsCaps() {
		return nil, nil
	}

	mc, err := r.Caps.GetMarketCaps(ctx, identifier)
	if err != nil {
		return nil, err
	}

	return mc.Align(assets)
}

func (r *Runner) emit(ctx context.Context, outcome *Outcome) error {
	wrap := func(err error) error {
		return &IdentifierError{Identifier: outcome.Identifier, Stage: StageSink, Err: err}
	}

	if err := r.Sink.WriteWeights(ctx, outcome.Identifier, outcome.Weights); err != nil {
		return wrap(err)
	}

	if outcome.Backtest == nil {
		return nil
	}

	if err := r.Sink.WriteBacktest(ctx, outcome.Identifier, outcome.Backtest.Returns); err != nil {
		return wrap(err)
	}

	if summarySink, ok := r.Sink.(sink.SummarySink); ok {
		if err := summarySink.WriteSummary(ctx, outcome.Identifier, outcome.Summary); err != nil {
			return wrap(err)
		}
	}

	return nil
}
