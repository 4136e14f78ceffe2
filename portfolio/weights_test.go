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

package portfolio_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pvopt/portfolio"
)

var _ = Describe("Weights", func() {
	DescribeTable("validates the budget and bounds",
		func(values []float64, expected error) {
			w := &portfolio.Weights{Assets: []string{"A", "B"}, Values: values}
			if expected == nil {
				Expect(w.Validate()).To(Succeed())
			} else {
				Expect(w.Validate()).To(MatchError(expected))
			}
		},
		Entry("valid", []float64{0.4, 0.6}, nil),
		Entry("within tolerance", []float64{0.4, 0.6000005}, nil),
		Entry("negative weight", []float64{-0.1, 1.1}, portfolio.ErrInvalidWeights),
		Entry("does not sum to one", []float64{0.4, 0.5}, portfolio.ErrInvalidWeights),
		Entry("wrong length", []float64{1.0}, portfolio.ErrDimensionMismatch),
	)

	It("maps weights by asset", func() {
		w := &portfolio.Weights{Assets: []string{"A", "B"}, Values: []float64{0.4, 0.6}}
		Expect(w.Map()).To(Equal(map[string]float64{"A": 0.4, "B": 0.6}))
	})

	Describe("EqualWeight", func() {
		It("allocates 1/n", func() {
			w, err := portfolio.EqualWeight([]string{"A", "B", "C", "D"})
			Expect(err).To(BeNil())
			Expect(w.Values).To(Equal([]float64{0.25, 0.25, 0.25, 0.25}))
			Expect(w.Validate()).To(Succeed())
		})

		It("needs at least one asset", func() {
			_, err := portfolio.EqualWeight(nil)
			Expect(err).To(MatchError(portfolio.ErrInsufficientData))
		})
	})

	Describe("CapWeight", func() {
		It("allocates proportionally to market cap", func() {
			w, err := portfolio.CapWeight([]string{"A", "B", "C"}, []float64{100, 300, 600})
			Expect(err).To(BeNil())
			Expect(w.Values[0]).To(BeNumerically("~", 0.1, 1e-15))
			Expect(w.Values[1]).To(BeNumerically("~", 0.3, 1e-15))
			Expect(w.Values[2]).To(BeNumerically("~", 0.6, 1e-15))
			Expect(w.Validate()).To(Succeed())
		})

		It("requires one cap per asset", func() {
			_, err := portfolio.CapWeight([]string{"A", "B"}, []float64{100})
			Expect(err).To(MatchError(portfolio.ErrDimensionMismatch))
		})

		It("rejects negative caps", func() {
			_, err := portfolio.CapWeight([]string{"A", "B"}, []float64{100, -1})
			Expect(err).To(MatchError(portfolio.ErrInvalidConfiguration))
		})

		It("rejects a zero total", func() {
			_, err := portfolio.CapWeight([]string{"A", "B"}, []float64{0, 0})
			Expect(err).To(MatchError(portfolio.ErrInvalidConfiguration))
		})
	})
})
