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

package dataframe_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pvopt/dataframe"
)

var _ = Describe("When computing column statistics", func() {
	var (
		df1 *dataframe.DataFrame[time.Time]
	)

	BeforeEach(func() {
		df1 = &dataframe.DataFrame[time.Time]{
			Index: []time.Time{
				time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2021, time.February, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2021, time.April, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2021, time.May, 1, 0, 0, 0, 0, time.UTC),
			},
			Vals:     [][]float64{{1.0, 2.0, 3.0, 4.0, 5.0}, {0.1, 0.1, 0.1, 0.1, 0.1}},
			ColNames: []string{"test", "flat"},
		}
	})

	It("adds a scalar without modifying the original", func() {
		res := df1.AddScalar(1.0)
		Expect(res.Vals[0]).To(Equal([]float64{2.0, 3.0, 4.0, 5.0, 6.0}))
		Expect(df1.Vals[0]).To(Equal([]float64{1.0, 2.0, 3.0, 4.0, 5.0}))
	})

	It("multiplies by a scalar", func() {
		res := df1.MulScalar(2.0)
		Expect(res.Vals[0]).To(Equal([]float64{2.0, 4.0, 6.0, 8.0, 10.0}))
	})

	It("computes the column mean", func() {
		mean := df1.Mean()
		Expect(mean[0]).To(BeNumerically("~", 3.0, 1e-12))
		Expect(mean[1]).To(BeNumerically("~", 0.1, 1e-12))
	})

	It("computes the column product", func() {
		prod := df1.Prod()
		Expect(prod[0]).To(BeNumerically("~", 120.0, 1e-12))
		Expect(prod[1]).To(BeNumerically("~", 1e-5, 1e-15))
	})

	It("computes the sample standard deviation", func() {
		sd := df1.StdDev()
		Expect(sd[0]).To(BeNumerically("~", math.Sqrt(2.5), 1e-12))
		Expect(sd[1]).To(BeNumerically("~", 0.0, 1e-12))
	})

	Describe("the exponentially weighted moving average", func() {
		It("matches the adjusted recursive formula", func() {
			df := &dataframe.DataFrame[time.Time]{
				Index: []time.Time{
					time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2021, time.February, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2021, time.March, 1, 0, 0, 0, 0, time.UTC),
				},
				Vals:     [][]float64{{1.0, 2.0, 3.0}},
				ColNames: []string{"test"},
			}

			ewma := df.EWMA(3)
			Expect(ewma.Len()).To(Equal(3))
			Expect(ewma.Vals[0][0]).Should(BeNumerically("~", 1.0, 1e-9))
			Expect(ewma.Vals[0][1]).Should(BeNumerically("~", 1.666666667, 1e-9))
			Expect(ewma.Vals[0][2]).Should(BeNumerically("~", 2.428571429, 1e-9))
		})

		It("leaves a constant series unchanged", func() {
			ewma := df1.EWMA(12)
			for _, v := range ewma.Vals[1] {
				Expect(v).Should(BeNumerically("~", 0.1, 1e-12))
			}
		})

		It("yields NaN for an invalid span", func() {
			ewma := df1.EWMA(0)
			Expect(ewma.Len()).To(Equal(5))
			for _, col := range ewma.Vals {
				for _, v := range col {
					Expect(math.IsNaN(v)).Should(BeTrue())
				}
			}
		})
	})
})
