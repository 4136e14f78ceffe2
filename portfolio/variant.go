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
	"fmt"
	"strings"
)

// Variant identifies a portfolio construction method
type Variant string

const (
	MSR Variant = "MSR"
	GMV Variant = "GMV"
	ERC Variant = "ERC"
	EW  Variant = "EW"
	CW  Variant = "CW"
)

// Variants returns every supported variant in canonical order
func Variants() []Variant {
	return []Variant{MSR, GMV, EW, CW, ERC}
}

// ParseVariant converts a variant name to a Variant (case-insensitive)
func ParseVariant(name string) (Variant, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "MSR":
		return MSR, nil
	case "GMV":
		return GMV, nil
	case "ERC":
		return ERC, nil
	case "EW":
		return EW, nil
	case "CW":
		return CW, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
}

// UnmarshalText lets variants be decoded directly from TOML and JSON documents
func (v *Variant) UnmarshalText(text []byte) error {
	variant, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = variant
	return nil
}

// NeedsCovariance is true for the variants that are solved numerically
func (v Variant) NeedsCovariance() bool {
	return v == MSR || v == GMV || v == ERC
}

// NeedsExpectedReturns is true only for MSR
func (v Variant) NeedsExpectedReturns() bool {
	return v == MSR
}

// NeedsCaps is true only for CW
func (v Variant) NeedsCaps() bool {
	return v == CW
}
