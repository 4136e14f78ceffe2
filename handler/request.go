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

package handler

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pvopt/dataframe"
	"github.com/penny-vault/pvopt/strategies"
)

// PortfolioRequest carries a return series in the request body. Returns holds one row per period with one value
// per asset. Dates are optional; without them periods are labeled with consecutive month ends starting
// 1970-01-31. Plan, when present, is applied on top of the server plan. Window is only read by the backtest and
// Points only by the frontier.
type PortfolioRequest struct {
	Assets     []string        `json:"assets"`
	Dates      []string        `json:"dates,omitempty"`
	Returns    [][]float64     `json:"returns"`
	MarketCaps []float64       `json:"marketCaps,omitempty"`
	Plan       json.RawMessage `json:"plan,omitempty"`
	Window     int             `json:"window,omitempty"`
	Points     int             `json:"points,omitempty"`
}

// MaxFrontierPoints bounds the number of portfolios a single frontier request may trace
const MaxFrontierPoints = 200

func (req *PortfolioRequest) frame() (*dataframe.DataFrame[time.Time], error) {
	if len(req.Returns) == 0 {
		return nil, fmt.Errorf("%w: returns are empty", ErrMalformedRequest)
	}

	// zero selects the default window
	if req.Window < 0 || (req.Window != 0 && req.Window >= len(req.Returns)) {
		return nil, fmt.Errorf("%w: window must be between 1 and %d, got %d", ErrMalformedRequest, len(req.Returns)-1, req.Window)
	}

	if req.Points < 0 || req.Points > MaxFrontierPoints {
		return nil, fmt.Errorf("%w: points must be between 2 and %d, got %d", ErrMalformedRequest, MaxFrontierPoints, req.Points)
	}

	if len(req.Dates) != 0 && len(req.Dates) != len(req.Returns) {
		return nil, fmt.Errorf("%w: %d dates for %d periods", ErrMalformedRequest, len(req.Dates), len(req.Returns))
	}

	df := &dataframe.DataFrame[time.Time]{
		Index:    make([]time.Time, len(req.Returns)),
		ColNames: req.Assets,
		Vals:     make([][]float64, len(req.Assets)),
	}

	for colIdx := range df.Vals {
		df.Vals[colIdx] = make([]float64, len(req.Returns))
	}

	for rowIdx, row := range req.Returns {
		if len(row) != len(req.Assets) {
			return nil, fmt.Errorf("%w: period %d has %d returns for %d assets", ErrMalformedRequest, rowIdx, len(row), len(req.Assets))
		}

		if len(req.Dates) == 0 {
			df.Index[rowIdx] = time.Date(1970, time.Month(rowIdx+2), 0, 0, 0, 0, 0, time.UTC)
		} else {
			dt, err := time.Parse("2006-01-02", req.Dates[rowIdx])
			if err != nil {
				return nil, fmt.Errorf("%w: date %q: %s", ErrMalformedRequest, req.Dates[rowIdx], err.Error())
			}
			df.Index[rowIdx] = dt
		}

		for colIdx, v := range row {
			df.Vals[colIdx][rowIdx] = v
		}
	}

	if err := df.Validate(); err != nil {
		return nil, err
	}

	return df, nil
}

// plan overlays the request plan on base and validates the result
func (req *PortfolioRequest) plan(base *strategies.Plan) (*strategies.Plan, error) {
	if len(req.Plan) == 0 {
		return base, nil
	}

	plan := base.Copy()
	if err := json.Unmarshal(req.Plan, plan); err != nil {
		return nil, fmt.Errorf("%w: plan: %s", ErrMalformedRequest, err.Error())
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}

	return plan, nil
}

func (req *PortfolioRequest) caps() []float64 {
	if len(req.MarketCaps) == 0 {
		return nil
	}
	return req.MarketCaps
}
