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

package covariance_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pvopt/covariance"
)

var _ = Describe("Model", func() {
	DescribeTable("parses model names", func(name string, expected covariance.Model) {
		model, err := covariance.ParseModel(name)
		Expect(err).To(BeNil())
		Expect(model).To(Equal(expected))
	},
		Entry("sample", "Sample", covariance.SampleModel),
		Entry("lower case", "sample", covariance.SampleModel),
		Entry("ccm", "CCM", covariance.ConstantCorrelationModel),
		Entry("long form", "ConstantCorrelation", covariance.ConstantCorrelationModel),
		Entry("shrinkage", "Shrinkage", covariance.ShrinkageModel),
		Entry("historical spelling", "Shrinage", covariance.ShrinkageModel),
	)

	It("rejects unknown names as a configuration error", func() {
		_, err := covariance.ParseModel("LedoitWolf")
		Expect(err).To(MatchError(covariance.ErrUnknownModel))
		Expect(errors.Is(err, covariance.ErrInvalidConfiguration)).To(BeTrue())
	})

	It("decodes from text", func() {
		var m covariance.Model
		Expect(m.UnmarshalText([]byte("ccm"))).To(Succeed())
		Expect(m).To(Equal(covariance.ConstantCorrelationModel))
	})

	It("dispatches to the estimator", func() {
		returns := syntheticReturns(3, 12)
		for _, model := range covariance.Models() {
			cov, err := covariance.Estimate(model, returns, covariance.Options{Delta: covariance.DefaultShrinkage})
			Expect(err).To(BeNil(), string(model))
			Expect(cov.Len()).To(Equal(3))
		}

		_, err := covariance.Estimate(covariance.Model("bogus"), returns, covariance.Options{})
		Expect(err).To(MatchError(covariance.ErrUnknownModel))
	})
})
