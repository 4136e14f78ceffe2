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

package strategies

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPlan            = errors.New("plan does not contain any portfolios")
	ErrInvalidPlan          = errors.New("invalid plan")
	ErrMissingMarketCaps    = errors.New("market caps are required by the plan but were not provided")
	ErrMissingCovariance    = fmt.Errorf("%w: MSR, GMV and ERC need at least one covariance model", ErrInvalidPlan)
	ErrMissingExpectedModel = fmt.Errorf("%w: MSR needs at least one expected return model", ErrInvalidPlan)
)

// RecipeError records which recipe of a plan failed
type RecipeError struct {
	Recipe string
	Err    error
}

func (e *RecipeError) Error() string {
	return fmt.Sprintf("recipe %s: %s", e.Recipe, e.Err.Error())
}

func (e *RecipeError) Unwrap() error {
	return e.Err
}
