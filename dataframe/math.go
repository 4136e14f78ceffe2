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

package dataframe

import (
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AddScalar adds the scalar value to all columns in dataframe df and returns a new dataframe
func (df *DataFrame[T]) AddScalar(scalar float64) *DataFrame[T] {
	df = df.Copy()

	for colIdx := range df.ColNames {
		floats.AddConst(scalar, df.Vals[colIdx])
	}
	return df
}

// MulScalar multiplies all columns in dataframe df by the scalar and returns a new dataframe
func (df *DataFrame[T]) MulScalar(scalar float64) *DataFrame[T] {
	df = df.Copy()

	for colIdx := range df.ColNames {
		floats.Scale(scalar, df.Vals[colIdx])
	}
	return df
}

// Mean returns the arithmetic mean of each column
func (df *DataFrame[T]) Mean() []float64 {
	res := make([]float64, len(df.Vals))
	for colIdx, col := range df.Vals {
		res[colIdx] = stat.Mean(col, nil)
	}
	return res
}

// Prod returns the product of all values in each column
func (df *DataFrame[T]) Prod() []float64 {
	res := make([]float64, len(df.Vals))
	for colIdx, col := range df.Vals {
		res[colIdx] = floats.Prod(col)
	}
	return res
}

// StdDev returns the sample (n-1) standard deviation of each column
func (df *DataFrame[T]) StdDev() []float64 {
	res := make([]float64, len(df.Vals))
	for colIdx, col := range df.Vals {
		res[colIdx] = stat.StdDev(col, nil)
	}
	return res
}

// EWMA computes the exponentially weighted moving average of all columns in df. The decay is parameterized by
// span, alpha = 2 / (span + 1), and every row is the weighted mean of all rows up to and including it with weights
// (1-alpha)^i where i is the distance from the current row. The result has the same shape as df; an invalid span
// results in a dataframe of all NaN.
func (df *DataFrame[T]) EWMA(span float64) *DataFrame[T] {
	res := &DataFrame[T]{
		Index:    df.Index,
		ColNames: df.ColNames,
		Vals:     make([][]float64, df.ColCount()),
	}

	if span < 1 || math.IsNaN(span) {
		log.Error().Float64("Span", span).Msg("span must be >= 1")
		for colIdx := range res.Vals {
			res.Vals[colIdx] = make([]float64, df.Len())
			for rowIdx := range res.Vals[colIdx] {
				res.Vals[colIdx][rowIdx] = math.NaN()
			}
		}
		return res
	}

	alpha := 2.0 / (span + 1.0)
	decay := 1.0 - alpha

	for colIdx, col := range df.Vals {
		out := make([]float64, len(col))
		num := 0.0
		den := 0.0
		for rowIdx, x := range col {
			num = num*decay + x
			den = den*decay + 1.0
			out[rowIdx] = num / den
		}
		res.Vals[colIdx] = out
	}

	return res
}
