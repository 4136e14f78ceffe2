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

package expected_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pvopt/covariance"
	"github.com/penny-vault/pvopt/expected"
)

var _ = Describe("Model", func() {
	DescribeTable("parses model names", func(name string, m expected.Model) {
		model, err := expected.ParseModel(name)
		Expect(err).To(BeNil())
		Expect(model).To(Equal(m))
	},
		Entry("average", "Average", expected.AverageModel),
		Entry("ewma", "ewma", expected.EWMAModel),
		Entry("implied", "Implied", expected.ImpliedModel),
		Entry("black litterman alias", "BLM", expected.ImpliedModel),
	)

	It("rejects unknown names", func() {
		_, err := expected.ParseModel("RW")
		Expect(errors.Is(err, expected.ErrInvalidConfiguration)).To(BeTrue())
	})

	It("knows which models need market caps", func() {
		Expect(expected.ImpliedModel.NeedsCaps()).To(BeTrue())
		Expect(expected.AverageModel.NeedsCaps()).To(BeFalse())
	})

	It("dispatches to every estimator", func() {
		r := monthly([]string{"A", "B"}, []float64{0.01, 0.02, -0.01, 0.03}, []float64{0.02, -0.01, 0.01, 0.0})
		cov, err := covariance.Sample(r)
		Expect(err).To(BeNil())

		opts := expected.Options{
			PeriodsPerYear: 12,
			Span:           expected.DefaultSpan,
			RiskAversion:   expected.DefaultRiskAversion,
			Covariance:     cov,
			CapWeights:     []float64{0.5, 0.5},
		}

		for _, model := range expected.Models() {
			er, err := expected.Estimate(model, r, opts)
			Expect(err).To(BeNil(), string(model))
			Expect(er.Len()).To(Equal(2))
		}
	})

	It("needs a covariance matrix for implied returns", func() {
		r := monthly([]string{"A"}, constant(0.01, 3))
		_, err := expected.Estimate(expected.ImpliedModel, r, expected.Options{RiskAversion: 2.5})
		Expect(err).To(MatchError(expected.ErrInvalidConfiguration))
	})
})
