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
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pvopt/common"
	"github.com/penny-vault/pvopt/data"
	"github.com/penny-vault/pvopt/dataframe"
)

type countingSource struct {
	inner   data.Source
	returns int32
	caps    int32
}

func (c *countingSource) GetReturns(ctx context.Context, identifier string) (*dataframe.DataFrame[time.Time], error) {
	atomic.AddInt32(&c.returns, 1)
	return c.inner.GetReturns(ctx, identifier)
}

func (c *countingSource) GetMarketCaps(ctx context.Context, identifier string) (*data.MarketCaps, error) {
	atomic.AddInt32(&c.caps, 1)
	return c.inner.GetMarketCaps(ctx, identifier)
}

var _ = Describe("CachedSource", func() {
	var (
		inner  *countingSource
		cache  *common.Cache
		source *data.CachedSource
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		inner = &countingSource{inner: data.NewFileSource("../testdata", data.Monthly)}
		cache, err = common.NewCache(16, "", time.Minute)
		Expect(err).To(BeNil())
		source = data.NewCachedSource(inner, cache, "file")
		ctx = context.Background()
	})

	It("serves repeated return requests from the cache", func() {
		first, err := source.GetReturns(ctx, "TEST")
		Expect(err).To(BeNil())
		second, err := source.GetReturns(ctx, "TEST")
		Expect(err).To(BeNil())

		Expect(inner.returns).To(Equal(int32(1)))
		Expect(second.ColNames).To(Equal(first.ColNames))
		Expect(second.Vals).To(Equal(first.Vals))
		Expect(second.Len()).To(Equal(first.Len()))
		for idx := range first.Index {
			Expect(second.Index[idx].Equal(first.Index[idx])).To(BeTrue())
		}
	})

	It("serves repeated market cap requests from the cache", func() {
		_, err := source.GetMarketCaps(ctx, "TEST")
		Expect(err).To(BeNil())
		mc, err := source.GetMarketCaps(ctx, "TEST")
		Expect(err).To(BeNil())
		Expect(inner.caps).To(Equal(int32(1)))
		Expect(mc.Values).To(Equal([]float64{300, 200, 100}))
	})

	It("does not cache failures", func() {
		_, err := source.GetReturns(ctx, "MISSING")
		Expect(err).To(MatchError(data.ErrUnknownIdentifier))
		_, err = source.GetReturns(ctx, "MISSING")
		Expect(err).To(HaveOccurred())
		Expect(inner.returns).To(Equal(int32(2)))
		Expect(cache.Len()).To(Equal(0))
	})

	It("separates namespaces", func() {
		other := data.NewCachedSource(inner, cache, "other")
		_, err := source.GetReturns(ctx, "TEST")
		Expect(err).To(BeNil())
		_, err = other.GetReturns(ctx, "TEST")
		Expect(err).To(BeNil())
		Expect(inner.returns).To(Equal(int32(2)))
	})
})
