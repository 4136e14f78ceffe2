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
	"strings"
	"time"

	"github.com/spf13/viper"
	"gonum.org/v1/gonum/optimize"
)

const (
	MethodBFGS       = "bfgs"
	MethodLBFGS      = "lbfgs"
	MethodNelderMead = "neldermead"

	// DefaultRiskFreeRate is the annual risk free rate used by MSR when none is configured
	DefaultRiskFreeRate = 0.03
)

// SolverConfig bounds the numerical search
type SolverConfig struct {
	// MaxIterations is the major iteration limit of each search; hitting it is an optimization failure
	MaxIterations int `toml:"max_iterations" json:"maxIterations"`

	// Tolerance is the absolute improvement in the objective below which the search is considered converged
	Tolerance float64 `toml:"tolerance" json:"tolerance"`

	// GradientThreshold stops gradient based searches once the gradient norm falls below it
	GradientThreshold float64 `toml:"gradient_threshold" json:"gradientThreshold"`

	// Method names the primary search method: bfgs, lbfgs or neldermead
	Method string `toml:"method" json:"method"`

	// Runtime optionally bounds the wall clock time of each search
	Runtime time.Duration `toml:"runtime" json:"runtime"`
}

// DefaultSolverConfig returns the configuration used when nothing is set
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		MaxIterations:     1000,
		Tolerance:         1e-12,
		GradientThreshold: 1e-9,
		Method:            MethodBFGS,
	}
}

// SolverConfigFromViper reads the `solver.*` keys, falling back to the defaults for unset keys
func SolverConfigFromViper() SolverConfig {
	cfg := DefaultSolverConfig()
	if viper.IsSet("solver.max_iterations") {
		cfg.MaxIterations = viper.GetInt("solver.max_iterations")
	}
	if viper.IsSet("solver.tolerance") {
		cfg.Tolerance = viper.GetFloat64("solver.tolerance")
	}
	if viper.IsSet("solver.gradient_threshold") {
		cfg.GradientThreshold = viper.GetFloat64("solver.gradient_threshold")
	}
	if viper.IsSet("solver.method") {
		cfg.Method = viper.GetString("solver.method")
	}
	if viper.IsSet("solver.runtime") {
		cfg.Runtime = viper.GetDuration("solver.runtime")
	}
	return cfg
}

// Validate checks that the configuration describes a usable search
func (cfg SolverConfig) Validate() error {
	if cfg.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations must be at least 1, got %d", ErrInvalidConfiguration, cfg.MaxIterations)
	}

	if cfg.Tolerance < 0 || cfg.GradientThreshold < 0 {
		return fmt.Errorf("%w: tolerances cannot be negative", ErrInvalidConfiguration)
	}

	if cfg.Runtime < 0 {
		return fmt.Errorf("%w: runtime cannot be negative", ErrInvalidConfiguration)
	}

	switch strings.ToLower(cfg.Method) {
	case MethodBFGS, MethodLBFGS, MethodNelderMead:
	default:
		return fmt.Errorf("%w: unknown method %q", ErrInvalidConfiguration, cfg.Method)
	}

	return nil
}

// methods returns fresh instances of the primary method followed by the fallback
func (cfg SolverConfig) methods() []optimize.Method {
	switch strings.ToLower(cfg.Method) {
	case MethodLBFGS:
		return []optimize.Method{&optimize.LBFGS{}, &optimize.NelderMead{}}
	case MethodNelderMead:
		return []optimize.Method{&optimize.NelderMead{}}
	default:
		return []optimize.Method{&optimize.BFGS{}, &optimize.NelderMead{}}
	}
}

func (cfg SolverConfig) settings() *optimize.Settings {
	return &optimize.Settings{
		MajorIterations:   cfg.MaxIterations,
		GradientThreshold: cfg.GradientThreshold,
		Runtime:           cfg.Runtime,
		Converger: &optimize.FunctionConverge{
			Absolute:   cfg.Tolerance,
			Iterations: 20,
		},
	}
}
