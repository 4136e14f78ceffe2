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

package covariance

import (
	"fmt"
	"math"
	"time"

	"github.com/penny-vault/pvopt/dataframe"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultShrinkage is the weight given to the constant-correlation target when no delta is configured
const DefaultShrinkage = 0.5

// Matrix is a symmetric covariance matrix whose rows and columns are labeled by asset
type Matrix struct {
	Assets []string
	Sym    *mat.SymDense
}

// Len returns the number of assets in the matrix
func (m *Matrix) Len() int {
	return len(m.Assets)
}

// At returns the covariance between asset i and asset j
func (m *Matrix) At(i, j int) float64 {
	return m.Sym.At(i, j)
}

// Variances returns the diagonal of the matrix
func (m *Matrix) Variances() []float64 {
	res := make([]float64, m.Len())
	for ii := range res {
		res[ii] = m.Sym.At(ii, ii)
	}
	return res
}

// Sample computes the unbiased (n-1) sample covariance of the return series
func Sample(r *dataframe.DataFrame[time.Time]) (*Matrix, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid return series: %w", err)
	}

	if r.Len() < 2 {
		return nil, fmt.Errorf("%w: sample covariance needs at least 2 periods, got %d", ErrInsufficientData, r.Len())
	}

	sym := mat.NewSymDense(r.ColCount(), nil)
	stat.CovarianceMatrix(sym, r.Matrix(), nil)

	return &Matrix{
		Assets: assets(r),
		Sym:    sym,
	}, nil
}

// ConstantCorrelation computes the Elton-Gruber constant correlation covariance. Every pairwise correlation is
// replaced by the mean off-diagonal correlation and the result is rescaled by the per-asset standard deviations.
func ConstantCorrelation(r *dataframe.DataFrame[time.Time]) (*Matrix, error) {
	if r.ColCount() < 2 {
		return nil, fmt.Errorf("%w: constant correlation needs at least 2 assets, got %d", ErrInsufficientData, r.ColCount())
	}

	sample, err := Sample(r)
	if err != nil {
		return nil, err
	}

	n := sample.Len()
	sd := make([]float64, n)
	for ii := range sd {
		sd[ii] = math.Sqrt(sample.At(ii, ii))
	}

	// the diagonal contributes exactly n to the correlation sum and is excluded
	// from the mean; a zero variance asset contributes no correlation
	offDiagonal := 0.0
	for ii := 0; ii < n; ii++ {
		for jj := ii + 1; jj < n; jj++ {
			if sd[ii] == 0 || sd[jj] == 0 {
				continue
			}
			offDiagonal += 2 * sample.At(ii, jj) / (sd[ii] * sd[jj])
		}
	}
	rhoBar := offDiagonal / float64(n*(n-1))

	sym := mat.NewSymDense(n, nil)
	for ii := 0; ii < n; ii++ {
		sym.SetSym(ii, ii, sd[ii]*sd[ii])
		for jj := ii + 1; jj < n; jj++ {
			sym.SetSym(ii, jj, rhoBar*sd[ii]*sd[jj])
		}
	}

	return &Matrix{
		Assets: sample.Assets,
		Sym:    sym,
	}, nil
}

// Shrinkage blends the constant correlation and sample estimators: delta*CC + (1-delta)*Sample. delta must lie
// in [0,1].
func Shrinkage(r *dataframe.DataFrame[time.Time], delta float64) (*Matrix, error) {
	if math.IsNaN(delta) || delta < 0 || delta > 1 {
		return nil, fmt.Errorf("%w: shrinkage delta must be within [0,1], got %v", ErrInvalidConfiguration, delta)
	}

	prior, err := ConstantCorrelation(r)
	if err != nil {
		return nil, err
	}

	sample, err := Sample(r)
	if err != nil {
		return nil, err
	}

	// the end points are returned exactly rather than through the blend
	switch delta {
	case 0:
		return sample, nil
	case 1:
		return prior, nil
	}

	n := sample.Len()
	sym := mat.NewSymDense(n, nil)
	for ii := 0; ii < n; ii++ {
		for jj := ii; jj < n; jj++ {
			sym.SetSym(ii, jj, delta*prior.At(ii, jj)+(1-delta)*sample.At(ii, jj))
		}
	}

	return &Matrix{
		Assets: sample.Assets,
		Sym:    sym,
	}, nil
}

func assets(r *dataframe.DataFrame[time.Time]) []string {
	res := make([]string, len(r.ColNames))
	copy(res, r.ColNames)
	return res
}
