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

package strategies_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pvopt/covariance"
	"github.com/penny-vault/pvopt/expected"
	"github.com/penny-vault/pvopt/portfolio"
	"github.com/penny-vault/pvopt/strategies"
	"github.com/spf13/viper"
)

var _ = Describe("Plan", func() {
	Context("with the default plan", func() {
		var plan *strategies.Plan

		BeforeEach(func() {
			var err error
			plan, err = strategies.DefaultPlan()
			Expect(err).To(BeNil())
		})

		It("is valid", func() {
			Expect(plan.Validate()).To(Succeed())
		})

		It("has the conventional parameters", func() {
			Expect(plan.RiskFreeRate).To(Equal(0.03))
			Expect(plan.RiskAversion).To(Equal(2.5))
			Expect(plan.ShrinkageDelta).To(Equal(0.5))
			Expect(plan.PeriodsPerYear).To(Equal(12.0))
			Expect(plan.ImpliedCovariance).To(Equal(covariance.SampleModel))
		})

		It("expands every recipe in a stable order", func() {
			Expect(plan.RecipeNames()).To(Equal([]string{
				"MSR_Sample_Average", "MSR_Sample_Implied",
				"MSR_CCM_Average", "MSR_CCM_Implied",
				"MSR_Shrinkage_Average", "MSR_Shrinkage_Implied",
				"GMV_Sample", "GMV_CCM", "GMV_Shrinkage",
				"EW", "CW",
				"ERC_Sample", "ERC_CCM", "ERC_Shrinkage",
			}))
		})

		It("needs market caps", func() {
			Expect(plan.NeedsCaps()).To(BeTrue())
		})
	})

	Describe("LoadPlan", func() {
		It("keeps defaults for keys that are not set", func() {
			plan, err := strategies.LoadPlan([]byte(`portfolios = ["GMV", "EW"]
covariances = ["Shrinage"]
risk_free_rate = 0.0
`))
			Expect(err).To(BeNil())
			Expect(plan.Portfolios).To(Equal([]portfolio.Variant{portfolio.GMV, portfolio.EW}))
			Expect(plan.Covariances).To(Equal([]covariance.Model{covariance.ShrinkageModel}))
			Expect(plan.ExpectedReturns).To(Equal([]expected.Model{expected.AverageModel, expected.ImpliedModel}))
			Expect(plan.RiskFreeRate).To(Equal(0.0))
			Expect(plan.ShrinkageDelta).To(Equal(0.5))
			Expect(plan.RecipeNames()).To(Equal([]string{"GMV_Shrinkage", "EW"}))
			Expect(plan.NeedsCaps()).To(BeFalse())
		})

		DescribeTable("rejects invalid plans", func(doc string) {
			_, err := strategies.LoadPlan([]byte(doc))
			Expect(errors.Is(err, strategies.ErrInvalidPlan) || errors.Is(err, strategies.ErrEmptyPlan)).To(BeTrue(), err)
		},
			Entry("unknown variant", `portfolios = ["HRP"]`),
			Entry("unknown covariance", `covariances = ["LedoitWolf"]`),
			Entry("no portfolios", `portfolios = []`),
			Entry("no covariance for GMV", "portfolios = [\"GMV\"]\ncovariances = []"),
			Entry("shrinkage out of range", `shrinkage_delta = 2.0`),
			Entry("duplicate recipes", `portfolios = ["EW", "EW"]`),
			Entry("invalid toml", `portfolios = [`),
		)

		It("loads plan files", func() {
			fn := filepath.Join(GinkgoT().TempDir(), "plan.toml")
			Expect(os.WriteFile(fn, []byte(`portfolios = ["ERC"]`), 0600)).To(Succeed())
			plan, err := strategies.LoadPlanFile(fn)
			Expect(err).To(BeNil())
			Expect(plan.RecipeNames()).To(Equal([]string{"ERC_Sample", "ERC_CCM", "ERC_Shrinkage"}))
		})
	})

	Describe("PlanFromViper", func() {
		AfterEach(func() {
			viper.Reset()
		})

		It("applies overrides", func() {
			viper.Set("plan.risk_free_rate", 0.01)
			viper.Set("plan.shrinkage_delta", 0.25)
			plan, err := strategies.PlanFromViper()
			Expect(err).To(BeNil())
			Expect(plan.RiskFreeRate).To(Equal(0.01))
			Expect(plan.ShrinkageDelta).To(Equal(0.25))
		})

		It("validates overrides", func() {
			viper.Set("plan.periods_per_year", -1)
			_, err := strategies.PlanFromViper()
			Expect(err).To(MatchError(strategies.ErrInvalidPlan))
		})
	})

	Describe("Recipe", func() {
		DescribeTable("names columns", func(r strategies.Recipe, name string) {
			Expect(r.Name()).To(Equal(name))
		},
			Entry("msr", strategies.Recipe{Variant: portfolio.MSR, Covariance: covariance.ConstantCorrelationModel, Expected: expected.EWMAModel}, "MSR_CCM_EWMA"),
			Entry("gmv", strategies.Recipe{Variant: portfolio.GMV, Covariance: covariance.SampleModel}, "GMV_Sample"),
			Entry("erc", strategies.Recipe{Variant: portfolio.ERC, Covariance: covariance.ShrinkageModel}, "ERC_Shrinkage"),
			Entry("ew", strategies.Recipe{Variant: portfolio.EW}, "EW"),
			Entry("cw", strategies.Recipe{Variant: portfolio.CW}, "CW"),
		)
	})

	It("copies plans without sharing slices", func() {
		plan, err := strategies.DefaultPlan()
		Expect(err).To(BeNil())
		plan2 := plan.Copy()
		plan2.Portfolios[0] = portfolio.EW
		plan2.RiskFreeRate = 0
		Expect(plan.Portfolios[0]).To(Equal(portfolio.MSR))
		Expect(plan.RiskFreeRate).To(Equal(0.03))
	})
})
