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

package data_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pvopt/data"
)

var _ = Describe("MarketCaps", func() {
	mc := &data.MarketCaps{
		Assets: []string{"AAA", "BBB", "CCC"},
		Values: []float64{300, 200, 100},
	}

	It("aligns to the asset order of a return series", func() {
		caps, err := mc.Align([]string{"CCC", "AAA"})
		Expect(err).To(BeNil())
		Expect(caps).To(Equal([]float64{100, 300}))
	})

	It("fails when an asset has no market cap", func() {
		_, err := mc.Align([]string{"AAA", "DDD"})
		Expect(err).To(MatchError(data.ErrMissingMarketCap))
		Expect(err).To(MatchError(data.ErrDataUnavailable))
	})
})

var _ = Describe("Indices", func() {
	It("knows the supported indices", func() {
		Expect(data.IndexNames()).To(Equal([]string{"DAX", "DowJones", "FTSE100", "HSI", "NasdaqComposite", "SP500"}))
		Expect(data.Indices["SP500"]).To(Equal("^GSPC"))
	})

	DescribeTable("parses frequencies", func(in string, expected data.Frequency, ppy float64) {
		f, err := data.ParseFrequency(in)
		Expect(err).To(BeNil())
		Expect(f).To(Equal(expected))
		Expect(f.PeriodsPerYear()).To(Equal(ppy))
	},
		Entry("default", "", data.Monthly, 12.0),
		Entry("monthly", "Monthly", data.Monthly, 12.0),
		Entry("daily", "d", data.Daily, 252.0),
	)

	It("rejects unknown frequencies", func() {
		_, err := data.ParseFrequency("weekly")
		Expect(err).To(MatchError(data.ErrUnknownFrequency))
	})
})
