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

import "fmt"

// Window is the estimation window [Start, End) of a backtest step. The allocation estimated on the window is
// scored against the returns of period End.
type Window struct {
	Index int
	Start int
	End   int
}

// Windows generates every rolling window of the given size over a series of nPeriods. Windows start at
// 0 .. nPeriods-size-1 so that each one is followed by a period to score against.
func Windows(nPeriods, size int) ([]Window, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: window size must be >= 1, got %d", ErrInvalidConfiguration, size)
	}

	if nPeriods <= size {
		return nil, fmt.Errorf("%w: %d periods cannot fill a window of %d and a period to score", ErrInsufficientData, nPeriods, size)
	}

	windows := make([]Window, nPeriods-size)
	for start := range windows {
		windows[start] = Window{
			Index: start,
			Start: start,
			End:   start + size,
		}
	}

	return windows, nil
}
