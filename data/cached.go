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

package data

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pvopt/common"
	"github.com/penny-vault/pvopt/dataframe"
	"github.com/rs/zerolog/log"
)

// CachedSource memoizes another source in a common.Cache. Namespace separates entries of different sources that
// share a cache (e.g., the same redis server).
type CachedSource struct {
	Source    Source
	Cache     *common.Cache
	Namespace string
}

type cachedReturns struct {
	Index    []time.Time `json:"index"`
	ColNames []string    `json:"columns"`
	Vals     [][]float64 `json:"values"`
}

func NewCachedSource(source Source, cache *common.Cache, namespace string) *CachedSource {
	return &CachedSource{
		Source:    source,
		Cache:     cache,
		Namespace: namespace,
	}
}

func (c *CachedSource) GetReturns(ctx context.Context, identifier string) (*dataframe.DataFrame[time.Time], error) {
	subLog := log.With().Str("Identifier", identifier).Str("Namespace", c.Namespace).Logger()

	key, err := common.CacheKey(c.Namespace, "returns", identifier)
	if err != nil {
		return nil, err
	}

	if body, err := c.Cache.Get(ctx, key); err == nil {
		var cached cachedReturns
		decodeErr := json.Unmarshal(body, &cached)
		if decodeErr == nil {
			subLog.Debug().Msg("returns cache hit")
			return &dataframe.DataFrame[time.Time]{
				Index:    cached.Index,
				ColNames: cached.ColNames,
				Vals:     cached.Vals,
			}, nil
		}
		subLog.Warn().Err(decodeErr).Msg("could not decode cached returns")
	} else if !errors.Is(err, common.ErrCacheMiss) {
		subLog.Warn().Err(err).Msg("cache lookup failed")
	}

	df, err := c.Source.GetReturns(ctx, identifier)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(cachedReturns{
		Index:    df.Index,
		ColNames: df.ColNames,
		Vals:     df.Vals,
	})
	if err != nil {
		subLog.Warn().Err(err).Msg("could not encode returns for cache")
		return df, nil
	}

	if err := c.Cache.Set(ctx, key, body); err != nil {
		subLog.Warn().Err(err).Msg("could not store returns in cache")
	}

	return df, nil
}

func (c *CachedSource) GetMarketCaps(ctx context.Context, identifier string) (*MarketCaps, error) {
	subLog := log.With().Str("Identifier", identifier).Str("Namespace", c.Namespace).Logger()

	key, err := common.CacheKey(c.Namespace, "caps", identifier)
	if err != nil {
		return nil, err
	}

	if body, err := c.Cache.Get(ctx, key); err == nil {
		mc := &MarketCaps{}
		decodeErr := json.Unmarshal(body, mc)
		if decodeErr == nil {
			subLog.Debug().Msg("market cap cache hit")
			return mc, nil
		}
		subLog.Warn().Err(decodeErr).Msg("could not decode cached market caps")
	} else if !errors.Is(err, common.ErrCacheMiss) {
		subLog.Warn().Err(err).Msg("cache lookup failed")
	}

	mc, err := c.Source.GetMarketCaps(ctx, identifier)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(mc)
	if err != nil {
		subLog.Warn().Err(err).Msg("could not encode market caps for cache")
		return mc, nil
	}

	if err := c.Cache.Set(ctx, key, body); err != nil {
		subLog.Warn().Err(err).Msg("could not store market caps in cache")
	}

	return mc, nil
}
