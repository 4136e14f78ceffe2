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
	// embed is used to bundle the default plan
	_ "embed"
	"fmt"
	"math"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pvopt/covariance"
	"github.com/penny-vault/pvopt/expected"
	"github.com/penny-vault/pvopt/portfolio"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

//go:embed plan.toml
var defaultPlanDoc []byte

// Plan describes which portfolios are computed for every estimation window and how their inputs are estimated
type Plan struct {
	Portfolios        []portfolio.Variant `toml:"portfolios" json:"portfolios"`
	Covariances       []covariance.Model  `toml:"covariances" json:"covariances"`
	ExpectedReturns   []expected.Model    `toml:"expected_returns" json:"expectedReturns"`
	RiskFreeRate      float64             `toml:"risk_free_rate" json:"riskFreeRate"`
	RiskAversion      float64             `toml:"risk_aversion" json:"riskAversion"`
	ShrinkageDelta    float64             `toml:"shrinkage_delta" json:"shrinkageDelta"`
	PeriodsPerYear    float64             `toml:"periods_per_year" json:"periodsPerYear"`
	Span              float64             `toml:"span" json:"span"`
	ImpliedCovariance covariance.Model    `toml:"implied_covariance" json:"impliedCovariance"`
}

// DefaultPlan returns the plan bundled with the binary
func DefaultPlan() (*Plan, error) {
	plan := &Plan{}
	if err := toml.Unmarshal(defaultPlanDoc, plan); err != nil {
		log.Error().Err(err).Msg("failed to parse embedded plan")
		return nil, err
	}
	return plan, nil
}

// LoadPlan parses a TOML plan document. Keys missing from doc keep their default values.
func LoadPlan(doc []byte) (*Plan, error) {
	plan := &Plan{}
	if err := toml.Unmarshal(doc, plan); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPlan, err.Error())
	}

	present := make(map[string]interface{})
	if err := toml.Unmarshal(doc, &present); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPlan, err.Error())
	}

	if err := plan.applyDefaults(present); err != nil {
		return nil, err
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}

	return plan, nil
}

// LoadPlanFile reads and parses the TOML plan at fn
func LoadPlanFile(fn string) (*Plan, error) {
	doc, err := os.ReadFile(fn)
	if err != nil {
		log.Error().Err(err).Str("File", fn).Msg("failed to read plan file")
		return nil, err
	}
	return LoadPlan(doc)
}

// PlanFromViper loads the plan named by `plan.file` (or the default plan) and applies the scalar overrides
// `plan.risk_free_rate`, `plan.risk_aversion`, `plan.shrinkage_delta`, `plan.periods_per_year` and `plan.span`
func PlanFromViper() (*Plan, error) {
	var (
		plan *Plan
		err  error
	)

	if fn := viper.GetString("plan.file"); fn != "" {
		plan, err = LoadPlanFile(fn)
	} else {
		plan, err = DefaultPlan()
	}
	if err != nil {
		return nil, err
	}

	if viper.IsSet("plan.risk_free_rate") {
		plan.RiskFreeRate = viper.GetFloat64("plan.risk_free_rate")
	}
	if viper.IsSet("plan.risk_aversion") {
		plan.RiskAversion = viper.GetFloat64("plan.risk_aversion")
	}
	if viper.IsSet("plan.shrinkage_delta") {
		plan.ShrinkageDelta = viper.GetFloat64("plan.shrinkage_delta")
	}
	if viper.IsSet("plan.periods_per_year") {
		plan.PeriodsPerYear = viper.GetFloat64("plan.periods_per_year")
	}
	if viper.IsSet("plan.span") {
		plan.Span = viper.GetFloat64("plan.span")
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}

	return plan, nil
}

// applyDefaults fills every key that is absent from the parsed document with the default plan's value
func (plan *Plan) applyDefaults(present map[string]interface{}) error {
	def, err := DefaultPlan()
	if err != nil {
		return err
	}

	missing := func(key string) bool {
		_, ok := present[key]
		return !ok
	}

	if missing("portfolios") {
		plan.Portfolios = def.Portfolios
	}
	if missing("covariances") {
		plan.Covariances = def.Covariances
	}
	if missing("expected_returns") {
		plan.ExpectedReturns = def.ExpectedReturns
	}
	if missing("risk_free_rate") {
		plan.RiskFreeRate = def.RiskFreeRate
	}
	if missing("risk_aversion") {
		plan.RiskAversion = def.RiskAversion
	}
	if missing("shrinkage_delta") {
		plan.ShrinkageDelta = def.ShrinkageDelta
	}
	if missing("periods_per_year") {
		plan.PeriodsPerYear = def.PeriodsPerYear
	}
	if missing("span") {
		plan.Span = def.Span
	}
	if missing("implied_covariance") {
		plan.ImpliedCovariance = def.ImpliedCovariance
	}

	return nil
}

// Validate checks that every tag is known, that each recipe has the estimators it needs and that the numeric
// parameters are in range
func (plan *Plan) Validate() error {
	if len(plan.Portfolios) == 0 {
		return ErrEmptyPlan
	}

	needsCov := false
	needsExpected := false
	for _, v := range plan.Portfolios {
		if _, err := portfolio.ParseVariant(string(v)); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidPlan, err.Error())
		}
		needsCov = needsCov || v.NeedsCovariance()
		needsExpected = needsExpected || v.NeedsExpectedReturns()
	}

	for _, m := range plan.Covariances {
		if _, err := covariance.ParseModel(string(m)); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidPlan, err.Error())
		}
	}

	for _, m := range plan.ExpectedReturns {
		if _, err := expected.ParseModel(string(m)); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidPlan, err.Error())
		}
	}

	if needsCov && len(plan.Covariances) == 0 {
		return ErrMissingCovariance
	}

	if needsExpected && len(plan.ExpectedReturns) == 0 {
		return ErrMissingExpectedModel
	}

	if plan.usesExpected(expected.ImpliedModel) {
		if _, err := covariance.ParseModel(string(plan.ImpliedCovariance)); err != nil {
			return fmt.Errorf("%w: implied covariance: %s", ErrInvalidPlan, err.Error())
		}
		if !(plan.RiskAversion > 0) {
			return fmt.Errorf("%w: risk aversion must be positive, got %v", ErrInvalidPlan, plan.RiskAversion)
		}
	}

	if plan.usesExpected(expected.EWMAModel) && !(plan.Span >= 1) {
		return fmt.Errorf("%w: span must be >= 1, got %v", ErrInvalidPlan, plan.Span)
	}

	if math.IsNaN(plan.ShrinkageDelta) || plan.ShrinkageDelta < 0 || plan.ShrinkageDelta > 1 {
		return fmt.Errorf("%w: shrinkage delta must be within [0,1], got %v", ErrInvalidPlan, plan.ShrinkageDelta)
	}

	if !(plan.PeriodsPerYear > 0) {
		return fmt.Errorf("%w: periods per year must be positive, got %v", ErrInvalidPlan, plan.PeriodsPerYear)
	}

	if math.IsNaN(plan.RiskFreeRate) || math.IsInf(plan.RiskFreeRate, 0) {
		return fmt.Errorf("%w: risk free rate must be finite", ErrInvalidPlan)
	}

	seen := make(map[string]bool)
	for _, r := range plan.Recipes() {
		if seen[r.Name()] {
			return fmt.Errorf("%w: recipe %s is listed more than once", ErrInvalidPlan, r.Name())
		}
		seen[r.Name()] = true
	}

	return nil
}

// Recipes expands the plan into one recipe per weight table column. MSR is expanded over every covariance and
// expected return model, GMV and ERC over every covariance model.
func (plan *Plan) Recipes() []Recipe {
	recipes := make([]Recipe, 0)
	for _, v := range plan.Portfolios {
		switch v {
		case portfolio.MSR:
			for _, c := range plan.Covariances {
				for _, e := range plan.ExpectedReturns {
					recipes = append(recipes, Recipe{Variant: v, Covariance: c, Expected: e})
				}
			}
		case portfolio.GMV, portfolio.ERC:
			for _, c := range plan.Covariances {
				recipes = append(recipes, Recipe{Variant: v, Covariance: c})
			}
		default:
			recipes = append(recipes, Recipe{Variant: v})
		}
	}
	return recipes
}

// RecipeNames returns the column labels of the plan in order
func (plan *Plan) RecipeNames() []string {
	recipes := plan.Recipes()
	names := make([]string, len(recipes))
	for ii, r := range recipes {
		names[ii] = r.Name()
	}
	return names
}

// NeedsCaps reports whether any recipe requires market caps
func (plan *Plan) NeedsCaps() bool {
	for _, r := range plan.Recipes() {
		if r.NeedsCaps() {
			return true
		}
	}
	return false
}

func (plan *Plan) usesExpected(model expected.Model) bool {
	msr := false
	for _, v := range plan.Portfolios {
		msr = msr || v == portfolio.MSR
	}
	if !msr {
		return false
	}
	for _, m := range plan.ExpectedReturns {
		if m == model {
			return true
		}
	}
	return false
}

// Copy returns a deep copy of the plan
func (plan *Plan) Copy() *Plan {
	plan2 := *plan
	plan2.Portfolios = append([]portfolio.Variant{}, plan.Portfolios...)
	plan2.Covariances = append([]covariance.Model{}, plan.Covariances...)
	plan2.ExpectedReturns = append([]expected.Model{}, plan.ExpectedReturns...)
	return &plan2
}
