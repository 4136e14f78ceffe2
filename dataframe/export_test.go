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
	"bytes"
	"context"
	"math"
	"strings"
	"time"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pvopt/dataframe"
)

var _ = Describe("Export", func() {
	var df *dataframe.DataFrame[time.Time]

	BeforeEach(func() {
		df = &dataframe.DataFrame[time.Time]{
			Index: []time.Time{
				time.Date(2021, 1, 31, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 2, 28, 0, 0, 0, 0, time.UTC),
			},
			ColNames: []string{"EW", "CW"},
			Vals: [][]float64{
				{0.01, 0.02},
				{-0.5, math.NaN()},
			},
		}
	})

	It("formats the index of a document", func() {
		doc := df.Document("date")
		Expect(doc.IndexName).To(Equal("date"))
		Expect(doc.Index).To(Equal([]string{"2021-01-31", "2021-02-28"}))
		Expect(doc.Columns).To(Equal([]string{"EW", "CW"}))
	})

	It("encodes NaN values as null", func() {
		b, err := json.Marshal(df.Document("date"))
		Expect(err).To(BeNil())
		Expect(string(b)).To(ContainSubstring(`"values":[[0.01,0.02],[-0.5,null]]`))

		var doc dataframe.Document
		Expect(json.Unmarshal(b, &doc)).To(Succeed())
		Expect(doc.Values[0]).To(Equal([]float64{0.01, 0.02}))
		Expect(doc.Values[1][0]).To(Equal(-0.5))
		Expect(math.IsNaN(doc.Values[1][1])).To(BeTrue())
	})

	It("writes CSV with the index as the first column", func() {
		df.Vals[1][1] = 0.25
		buf := &bytes.Buffer{}
		Expect(df.ToCSV(context.Background(), buf, "date")).To(Succeed())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(HaveLen(3))
		Expect(lines[0]).To(Equal("date,EW,CW"))
		Expect(lines[1]).To(HavePrefix("2021-01-31,"))
	})
})
