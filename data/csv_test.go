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
	"context"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pvopt/data"
)

var _ = Describe("CSV", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("ParseReturns", func() {
		It("loads the index return tables", func() {
			body, err := os.ReadFile("../testdata/TEST_m.csv")
			Expect(err).To(BeNil())

			df, err := data.ParseReturns(ctx, body)
			Expect(err).To(BeNil())
			Expect(df.ColNames).To(Equal([]string{"AAA", "BBB", "CCC"}))
			Expect(df.Len()).To(Equal(15))
			Expect(df.Index[0]).To(Equal(time.Date(2019, 1, 31, 0, 0, 0, 0, time.UTC)))
			Expect(df.Row(0)).To(Equal([]float64{0.034636, 0.028749, -0.051368}))
			Expect(df.Validate()).To(Succeed())
		})

		It("drops rows with missing values", func() {
			df, err := data.ParseReturns(ctx, []byte("date,A,B\n2020-01-31,0.1,0.2\n2020-02-29,,0.3\n2020-03-31,0.4,0.5\n"))
			Expect(err).To(BeNil())
			Expect(df.Len()).To(Equal(2))
			Expect(df.Index[1]).To(Equal(time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC)))
			Expect(df.Column("A")).To(Equal([]float64{0.1, 0.4}))
		})

		It("sorts rows chronologically", func() {
			df, err := data.ParseReturns(ctx, []byte("date,A\n2020-03,0.3\n2020-01,0.1\n2020-02,0.2\n"))
			Expect(err).To(BeNil())
			Expect(df.Column("A")).To(Equal([]float64{0.1, 0.2, 0.3}))
		})

		It("accepts timestamps", func() {
			df, err := data.ParseReturns(ctx, []byte("Date,A\n2020-01-31 00:00:00,0.1\n2020-02-29 00:00:00,0.2\n"))
			Expect(err).To(BeNil())
			Expect(df.Len()).To(Equal(2))
		})

		DescribeTable("rejects malformed tables", func(doc string) {
			_, err := data.ParseReturns(ctx, []byte(doc))
			Expect(err).To(HaveOccurred())
		},
			Entry("no rows", "date,A"),
			Entry("no asset columns", "date\n2020-01-31\n"),
			Entry("duplicate assets", "date,A,A\n2020-01-31,0.1,0.2\n"),
			Entry("bad dates", "date,A\nyesterday,0.1\n"),
			Entry("duplicate dates", "date,A\n2020-01-31,0.1\n2020-01-31,0.2\n"),
			Entry("non-numeric return", "date,A\n2020-01-31,abc\n"),
			Entry("decimal comma", "date,A,B\n2020-01-31,0.1,\"1,2\"\n2020-02-29,0.1,0.2\n"),
		)

		It("reports a corrupt cell as malformed instead of dropping its row", func() {
			_, err := data.ParseReturns(ctx, []byte("date,A,B\n2020-01-31,0.1,0.2\n2020-02-29,0.1,x\n2020-03-31,0.3,0.4\n"))
			Expect(err).To(MatchError(data.ErrMalformedData))
		})

		It("reports a table without complete rows as unavailable", func() {
			_, err := data.ParseReturns(ctx, []byte("date,A,B\n2020-01-31,,0.2\n"))
			Expect(err).To(MatchError(data.ErrDataUnavailable))
		})
	})

	Describe("ParseMarketCaps", func() {
		It("loads market caps", func() {
			body, err := os.ReadFile("../testdata/TEST_caps.csv")
			Expect(err).To(BeNil())

			mc, err := data.ParseMarketCaps(ctx, body)
			Expect(err).To(BeNil())
			Expect(mc.Assets).To(Equal([]string{"AAA", "BBB", "CCC"}))
			Expect(mc.Values).To(Equal([]float64{300, 200, 100}))
		})

		DescribeTable("rejects malformed tables", func(doc string, expected error) {
			_, err := data.ParseMarketCaps(ctx, []byte(doc))
			Expect(err).To(MatchError(expected))
		},
			Entry("three columns", "ticker,cap,other\nA,1,2\n", data.ErrMalformedData),
			Entry("negative caps", "ticker,cap\nA,-1\n", data.ErrMalformedData),
			Entry("missing caps", "ticker,cap\nA,\n", data.ErrMalformedData),
			Entry("non-numeric caps", "ticker,cap\nA,lots\n", data.ErrMalformedData),
			Entry("duplicates", "ticker,cap\nA,1\nA,2\n", data.ErrMalformedData),
		)
	})
})
