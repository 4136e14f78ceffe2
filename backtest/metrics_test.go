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

package backtest_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pvopt/backtest"
	"github.com/penny-vault/pvopt/dataframe"
)

var _ = Describe("Metrics", func() {
	Context("with periodic returns", func() {
		It("compounds the cumulative return", func() {
			Expect(backtest.CumulativeReturn([]float64{0.1, -0.1})).To(BeNumerically("~", -0.01, 1e-12))
		})

		It("annualizes monthly returns", func() {
			rets := make([]float64, 12)
			for ii := range rets {
				rets[ii] = 0.01
			}
			Expect(backtest.AnnualizedReturn(rets, 12)).To(BeNumerically("~", 0.12682503, 1e-8))
			Expect(backtest.AnnualizedReturn(rets[:6], 12)).To(BeNumerically("~", 0.12682503, 1e-8))
		})

		It("annualizes volatility", func() {
			vol := backtest.AnnualizedVolatility([]float64{0.01, 0.03, -0.01, 0.01}, 12)
			Expect(vol).To(BeNumerically("~", 0.04*math.Sqrt2, 1e-9))
		})

		It("computes the sharpe ratio from excess returns", func() {
			rets := []float64{0.01, 0.03, -0.01, 0.01}
			expected := backtest.AnnualizedReturn(rets, 12) / backtest.AnnualizedVolatility(rets, 12)
			Expect(backtest.SharpeRatio(rets, 12, 0)).To(BeNumerically("~", expected, 1e-12))
			Expect(backtest.SharpeRatio(rets, 12, 0.03)).To(BeNumerically("<", expected))
		})

		It("returns NaN when there is not enough data", func() {
			Expect(math.IsNaN(backtest.CumulativeReturn(nil))).To(BeTrue())
			Expect(math.IsNaN(backtest.AnnualizedReturn(nil, 12))).To(BeTrue())
			Expect(math.IsNaN(backtest.AnnualizedVolatility([]float64{0.1}, 12))).To(BeTrue())
			Expect(math.IsNaN(backtest.SharpeRatio([]float64{0.1}, 12, 0))).To(BeTrue())
		})
	})

	Context("with draw downs", func() {
		dates := []time.Time{monthEnd(0), monthEnd(1), monthEnd(2), monthEnd(3), monthEnd(4), monthEnd(5)}

		It("finds the deepest draw down and its recovery", func() {
			dd := backtest.MaxDrawDown(dates[:4], []float64{0.1, -0.2, 0.05, 0.2})
			Expect(dd).ToNot(BeNil())
			Expect(dd.LossPercent).To(BeNumerically("~", -0.2, 1e-12))
			Expect(dd.Begin).To(Equal(dates[0]))
			Expect(dd.End).To(Equal(dates[1]))
			Expect(dd.Recovery).To(Equal(dates[3]))
		})

		It("reports a draw down that has not recovered", func() {
			all := backtest.AllDrawDowns(dates, []float64{-0.1, 0.2, -0.05, 0.0, -0.1, 0.01})
			Expect(all).To(HaveLen(2))
			Expect(all[0].Begin.IsZero()).To(BeTrue())
			Expect(all[0].Recovery).To(Equal(dates[1]))
			Expect(all[1].Begin).To(Equal(dates[1]))
			Expect(all[1].End).To(Equal(dates[4]))
			Expect(all[1].Recovery.IsZero()).To(BeTrue())
			Expect(all[1].LossPercent).To(BeNumerically("~", 0.95*0.9-1.0, 1e-12))
		})

		It("returns nil for a curve that never declines", func() {
			Expect(backtest.MaxDrawDown(dates[:3], []float64{0.01, 0.0, 0.02})).To(BeNil())
		})
	})

	Describe("Summarize", func() {
		It("produces one row per metric and one column per series", func() {
			returns := &dataframe.DataFrame[time.Time]{
				Index:    []time.Time{monthEnd(0), monthEnd(1), monthEnd(2), monthEnd(3)},
				ColNames: []string{"EW", "CW"},
				Vals: [][]float64{
					{0.1, -0.2, 0.05, 0.2},
					{0.01, 0.03, -0.01, 0.01},
				},
			}

			summary := backtest.Summarize(returns, 12, 0.03)
			Expect(summary.Index).To(Equal(backtest.Metrics()))
			Expect(summary.ColNames).To(Equal([]string{"EW", "CW"}))
			Expect(summary.Column("EW")[4]).To(BeNumerically("~", -0.2, 1e-12))
			Expect(summary.Column("CW")[2]).To(BeNumerically("~", 0.04*math.Sqrt2, 1e-9))
			Expect(summary.Table()).To(ContainSubstring("SharpeRatio"))
		})
	})
})
