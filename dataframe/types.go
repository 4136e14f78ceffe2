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
	"errors"
	"time"
)

// Indexable restricts the row index of a DataFrame to dates (return series)
// or strings (asset keyed tables such as weight vectors)
type Indexable interface {
	time.Time | string
}

// DataFrame stores a table of values organized by index
// the vals array is column major - e.g.,
// VFINX  PRIDX
// 1      4
// 2      5
// 3      6
//
// Vals[0][0] = 1
// Vals[0][1] = 2
// Vals[1][0] = 4
type DataFrame[T Indexable] struct {
	Index    []T
	ColNames []string
	Vals     [][]float64
}

var (
	ErrNoColumns          = errors.New("dataframe has no columns")
	ErrEmptyColumnName    = errors.New("column name cannot be empty")
	ErrDuplicateColumn    = errors.New("duplicate column name")
	ErrColumnLength       = errors.New("column length does not match index length")
	ErrContainsNaN        = errors.New("dataframe contains NaN values")
	ErrIndexNotIncreasing = errors.New("date index is not strictly increasing")
	ErrInvalidRange       = errors.New("invalid row range")
)
