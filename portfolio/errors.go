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

package portfolio

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/optimize"
)

var (
	ErrDegenerateCovariance = errors.New("portfolio variance is not positive")
	ErrDimensionMismatch    = errors.New("asset dimensions do not match")
	ErrInsufficientData     = errors.New("portfolio has no assets")
	ErrInvalidConfiguration = errors.New("invalid portfolio configuration")
	ErrInvalidWeights       = errors.New("weights violate the budget or bound constraints")
	ErrOptimizationFailure  = errors.New("optimization failed")
	ErrUnknownVariant       = fmt.Errorf("%w: unknown portfolio variant", ErrInvalidConfiguration)
)

// OptimizationError is returned when the solver does not converge. It carries the last iterate the solver visited
// and the termination status it reported.
type OptimizationError struct {
	Variant Variant
	Status  optimize.Status
	Last    *Weights
	Err     error
}

func (e *OptimizationError) Error() string {
	var sb strings.Builder
	sb.WriteString(ErrOptimizationFailure.Error())
	sb.WriteString(": ")
	sb.WriteString(string(e.Variant))
	sb.WriteString(" terminated with status ")
	sb.WriteString(e.Status.String())
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Is reports true for ErrOptimizationFailure so callers can match on the sentinel
func (e *OptimizationError) Is(target error) bool {
	return target == ErrOptimizationFailure
}

func (e *OptimizationError) Unwrap() error {
	return e.Err
}
