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
	"fmt"
	"time"

	"github.com/penny-vault/pvopt/dataframe"
)

// ReturnDataSource provides the periodic return series of every asset in an identified universe (e.g., an index)
type ReturnDataSource interface {
	GetReturns(ctx context.Context, identifier string) (*dataframe.DataFrame[time.Time], error)
}

// MarketCapDataSource provides the market capitalization of every asset in an identified universe
type MarketCapDataSource interface {
	GetMarketCaps(ctx context.Context, identifier string) (*MarketCaps, error)
}

// Source provides both returns and market caps
type Source interface {
	ReturnDataSource
	MarketCapDataSource
}

// MarketCaps holds the market capitalization of each asset
type MarketCaps struct {
	Assets []string  `json:"assets"`
	Values []float64 `json:"values"`
}

// Map returns the market caps keyed by asset
func (mc *MarketCaps) Map() map[string]float64 {
	res := make(map[string]float64, len(mc.Assets))
	for idx, asset := range mc.Assets {
		res[asset] = mc.Values[idx]
	}
	return res
}

// Align orders the market caps to match assets. Every asset must have a market cap; extra market caps are ignored.
func (mc *MarketCaps) Align(assets []string) ([]float64, error) {
	caps := mc.Map()
	res := make([]float64, len(assets))
	for idx, asset := range assets {
		val, ok := caps[asset]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingMarketCap, asset)
		}
		res[idx] = val
	}
	return res, nil
}
