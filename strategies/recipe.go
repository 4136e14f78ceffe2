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
	"fmt"

	"github.com/penny-vault/pvopt/covariance"
	"github.com/penny-vault/pvopt/expected"
	"github.com/penny-vault/pvopt/portfolio"
)

// Recipe is one column of a weight table: a portfolio variant plus the estimators feeding it
type Recipe struct {
	Variant    portfolio.Variant
	Covariance covariance.Model
	Expected   expected.Model
}

// Name returns the column label of the recipe, e.g. MSR_Sample_Average, GMV_CCM, ERC_Shrinkage, EW or CW
func (r Recipe) Name() string {
	switch r.Variant {
	case portfolio.MSR:
		return fmt.Sprintf("%s_%s_%s", r.Variant, r.Covariance, r.Expected)
	case portfolio.GMV, portfolio.ERC:
		return fmt.Sprintf("%s_%s", r.Variant, r.Covariance)
	default:
		return string(r.Variant)
	}
}

// NeedsCaps reports whether computing the recipe requires market caps
func (r Recipe) NeedsCaps() bool {
	return r.Variant.NeedsCaps() || (r.Variant.NeedsExpectedReturns() && r.Expected.NeedsCaps())
}
