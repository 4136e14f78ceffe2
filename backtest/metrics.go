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

package backtest

import (
	"math"
	"time"

	"github.com/penny-vault/pvopt/dataframe"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	CumulativeReturnMetric     = "CumulativeReturn"
	AnnualizedReturnMetric     = "AnnualizedReturn"
	AnnualizedVolatilityMetric = "AnnualizedVolatility"
	SharpeRatioMetric          = "SharpeRatio"
	MaxDrawDownMetric          = "MaxDrawDown"
)

// DrawDown is a period in which cumulative growth falls from a previous peak. Begin is the date of the peak (zero
// when the peak is the starting value), End the trough and Recovery the first date back at or above the peak.
type DrawDown struct {
	Begin       time.Time
	End         time.Time
	Recovery    time.Time
	LossPercent float64
}

// Metrics returns the names of the rows produced by Summarize
func Metrics() []string {
	return []string{
		CumulativeReturnMetric,
		AnnualizedReturnMetric,
		AnnualizedVolatilityMetric,
		SharpeRatioMetric,
		MaxDrawDownMetric,
	}
}

// CumulativeReturn compounds the periodic returns
func CumulativeReturn(rets []float64) float64 {
	if len(rets) == 0 {
		return math.NaN()
	}
	return growth(rets) - 1.0
}

// AnnualizedReturn is the compounded growth rate per year
func AnnualizedReturn(rets []float64, periodsPerYear float64) float64 {
	if len(rets) == 0 || periodsPerYear <= 0 {
		return math.NaN()
	}

	g := growth(rets)
	if g < 0 {
		return math.NaN()
	}
	return math.Pow(g, periodsPerYear/float64(len(rets))) - 1.0
}

// AnnualizedVolatility scales the sample standard deviation of the periodic returns by sqrt(periodsPerYear)
func AnnualizedVolatility(rets []float64, periodsPerYear float64) float64 {
	if len(rets) < 2 || periodsPerYear <= 0 {
		return math.NaN()
	}
	return stat.StdDev(rets, nil) * math.Sqrt(periodsPerYear)
}

// SharpeRatio is the annualized return in excess of riskFree divided by the annualized volatility. riskFree is an
// annual rate and is converted to a per period rate before it is subtracted.
func SharpeRatio(rets []float64, periodsPerYear, riskFree float64) float64 {
	if len(rets) < 2 || periodsPerYear <= 0 {
		return math.NaN()
	}

	rf := math.Pow(1.0+riskFree, 1.0/periodsPerYear) - 1.0
	excess := make([]float64, len(rets))
	copy(excess, rets)
	floats.AddConst(-rf, excess)

	return AnnualizedReturn(excess, periodsPerYear) / AnnualizedVolatility(rets, periodsPerYear)
}

// AllDrawDowns finds every draw down of the growth curve implied by rets; dates holds the date of each period
func AllDrawDowns(dates []time.Time, rets []float64) []*DrawDown {
	allDrawDowns := []*DrawDown{}

	value := 1.0
	peak := 1.0
	var peakDate time.Time
	var drawDown *DrawDown

	for ii, r := range rets {
		value *= 1.0 + r
		if value < peak {
			loss := value/peak - 1.0
			if drawDown == nil {
				drawDown = &DrawDown{
					Begin:       peakDate,
					End:         dates[ii],
					LossPercent: loss,
				}
			}

			if loss < drawDown.LossPercent {
				drawDown.End = dates[ii]
				drawDown.LossPercent = loss
			}
			continue
		}

		if drawDown != nil {
			drawDown.Recovery = dates[ii]
			allDrawDowns = append(allDrawDowns, drawDown)
			drawDown = nil
		}
		peak = value
		peakDate = dates[ii]
	}

	// still under water at the end of the series
	if drawDown != nil {
		allDrawDowns = append(allDrawDowns, drawDown)
	}

	return allDrawDowns
}

// MaxDrawDown returns the deepest draw down or nil if the growth curve never declines
func MaxDrawDown(dates []time.Time, rets []float64) *DrawDown {
	var worst *DrawDown
	for _, dd := range AllDrawDowns(dates, rets) {
		if worst == nil || dd.LossPercent < worst.LossPercent {
			worst = dd
		}
	}
	return worst
}

// Summarize computes the performance metrics of every column in returns. The result has one row per metric
// (see Metrics) and the same columns as returns.
func Summarize(returns *dataframe.DataFrame[time.Time], periodsPerYear, riskFree float64) *dataframe.DataFrame[string] {
	summary := &dataframe.DataFrame[string]{
		Index: Metrics(),
	}

	for colIdx, name := range returns.ColNames {
		rets := returns.Vals[colIdx]

		maxDrawDown := 0.0
		if dd := MaxDrawDown(returns.Index, rets); dd != nil {
			maxDrawDown = dd.LossPercent
			log.Debug().Str("Recipe", name).Object("MaxDrawDown", dd).Msg("deepest draw down")
		}

		summary.Insert(name, []float64{
			CumulativeReturn(rets),
			AnnualizedReturn(rets, periodsPerYear),
			AnnualizedVolatility(rets, periodsPerYear),
			SharpeRatio(rets, periodsPerYear, riskFree),
			maxDrawDown,
		})
	}

	return summary
}

func growth(rets []float64) float64 {
	g := 1.0
	for _, r := range rets {
		g *= 1.0 + r
	}
	return g
}
