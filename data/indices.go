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
	"fmt"
	"sort"
	"strings"
)

// Frequency of a return series. The value is the suffix used by the file names of the index return sets.
type Frequency string

const (
	Monthly Frequency = "m"
	Daily   Frequency = "d"
)

// Indices maps the name of every supported index to its ticker
var Indices = map[string]string{
	"SP500":           "^GSPC",
	"NasdaqComposite": "^IXIC",
	"DowJones":        "^DJI",
	"FTSE100":         "^FTSE",
	"DAX":             "^GDAXI",
	"HSI":             "^HSI",
}

// IndexNames returns the names of all supported indices in alphabetical order
func IndexNames() []string {
	names := make([]string, 0, len(Indices))
	for k := range Indices {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ParseFrequency accepts m, monthly, d or daily
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(s) {
	case "", "m", "monthly":
		return Monthly, nil
	case "d", "daily":
		return Daily, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFrequency, s)
	}
}

// PeriodsPerYear is the annualization factor for the frequency
func (f Frequency) PeriodsPerYear() float64 {
	if f == Daily {
		return 252
	}
	return 12
}

func (f Frequency) suffix() Frequency {
	if f == "" {
		return Monthly
	}
	return f
}
