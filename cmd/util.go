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

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/penny-vault/pvopt/backtest"
	"github.com/penny-vault/pvopt/common"
	"github.com/penny-vault/pvopt/data"
	"github.com/penny-vault/pvopt/data/database"
	"github.com/penny-vault/pvopt/observability/opentelemetry"
	"github.com/penny-vault/pvopt/portfolio"
	"github.com/penny-vault/pvopt/runner"
	"github.com/penny-vault/pvopt/sink"
	"github.com/penny-vault/pvopt/strategies"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// connectDatabase opens the connection pool once
func connectDatabase(ctx context.Context) error {
	if database.Configured() {
		return nil
	}

	url := viper.GetString("database.url")
	if url == "" {
		return fmt.Errorf("%w: database.url is not set", data.ErrDataUnavailable)
	}
	return database.Connect(ctx, url)
}

func frequency() (data.Frequency, error) {
	return data.ParseFrequency(viper.GetString("data.frequency"))
}

// newSource builds the data source named by `data.source`, wrapped in the cache when `cache.enabled` is set
func newSource(ctx context.Context) (data.Source, error) {
	freq, err := frequency()
	if err != nil {
		return nil, err
	}

	kind := strings.ToLower(viper.GetString("data.source"))

	var src data.Source
	switch kind {
	case "file":
		src = data.NewFileSource(viper.GetString("data.dir"), freq)
	case "http":
		src = data.NewHTTPSource(viper.GetString("data.returns_url"), viper.GetString("data.caps_url"), freq)
	case "db":
		if err := connectDatabase(ctx); err != nil {
			return nil, err
		}
		src = data.NewPgSource(viper.GetString("database.role"))
	default:
		return nil, fmt.Errorf("%w: %q", data.ErrUnknownSource, kind)
	}

	if !viper.GetBool("cache.enabled") {
		return src, nil
	}

	cache, err := common.NewCacheFromConfig()
	if err != nil {
		log.Error().Err(err).Msg("could not create cache")
		return nil, err
	}

	return data.NewCachedSource(src, cache, fmt.Sprintf("%s/%s", kind, freq)), nil
}

// newSink builds the result sink named by `sink.kind`
func newSink(ctx context.Context) (sink.PortfolioResultSink, error) {
	kind := strings.ToLower(viper.GetString("sink.kind"))
	switch kind {
	case "table":
		return sink.NewTable(os.Stdout), nil
	case "csv":
		return sink.NewCSV(viper.GetString("sink.dir"))
	case "json":
		return sink.NewJSON(os.Stdout), nil
	case "db":
		if err := connectDatabase(ctx); err != nil {
			return nil, err
		}
		return sink.NewPg(viper.GetString("database.role")), nil
	default:
		return nil, fmt.Errorf("%w: %q", sink.ErrUnknownSink, kind)
	}
}

// loadPlan reads the plan; periods per year follow the data frequency unless `plan.periods_per_year` is set
func loadPlan() (*strategies.Plan, error) {
	plan, err := strategies.PlanFromViper()
	if err != nil {
		return nil, err
	}

	if !viper.IsSet("plan.periods_per_year") {
		freq, err := frequency()
		if err != nil {
			return nil, err
		}
		plan.PeriodsPerYear = freq.PeriodsPerYear()
	}

	return plan, nil
}

func newSolver() (*portfolio.Solver, error) {
	return portfolio.NewSolver(portfolio.SolverConfigFromViper())
}

// newRunner wires the configured source, sink, plan and solver together. The runner backtests every identifier
// when window is positive.
func newRunner(ctx context.Context, window int) (*runner.Runner, error) {
	src, err := newSource(ctx)
	if err != nil {
		return nil, err
	}

	out, err := newSink(ctx)
	if err != nil {
		return nil, err
	}

	plan, err := loadPlan()
	if err != nil {
		return nil, err
	}

	solver, err := newSolver()
	if err != nil {
		return nil, err
	}

	run := &runner.Runner{
		Returns: src,
		Caps:    src,
		Sink:    out,
		Plan:    plan,
		Solver:  solver,
	}

	if window > 0 {
		run.Driver = backtest.NewDriver(plan, solver)
		run.Driver.WindowSize = window
		if workers := viper.GetInt("run.workers"); workers > 0 {
			run.Driver.Workers = workers
		}
	}

	return run, nil
}

// identifiers defaults to every known index when none are given on the command line
func identifiers(args []string) []string {
	if len(args) == 0 {
		return data.IndexNames()
	}
	return args
}

// setupTracing starts the OTLP exporter when one is configured; the returned function is always safe to call
func setupTracing() func() {
	if !opentelemetry.Enabled() {
		return func() {}
	}

	shutdown, err := opentelemetry.Setup()
	if err != nil {
		log.Error().Err(err).Msg("could not setup tracing")
		return func() {}
	}

	return func() {
		if err := shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("could not flush traces")
		}
	}
}

// runAll executes run over args and exits non-zero when any identifier failed
func runAll(ctx context.Context, run *runner.Runner, args []string) {
	policy, err := runner.ParsePolicy(viper.GetString("run.on_error"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid error policy")
	}

	report, err := run.Run(ctx, identifiers(args), policy)
	if err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}

	for _, failure := range report.Failures {
		fmt.Fprintf(os.Stderr, "%s failed: %s\n", failure.Identifier, failure.Err)
	}

	if report.Failed() {
		os.Exit(2)
	}
}
