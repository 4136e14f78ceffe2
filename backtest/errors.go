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
	"errors"
	"fmt"
)

var (
	ErrInsufficientData     = errors.New("insufficient data for backtest")
	ErrInvalidConfiguration = errors.New("invalid backtest configuration")
)

// WindowError reports the estimation window (and recipe, when known) that caused a backtest to fail
type WindowError struct {
	Window Window
	Recipe string
	Err    error
}

func (e *WindowError) Error() string {
	if e.Recipe == "" {
		return fmt.Sprintf("window %d [%d, %d): %s", e.Window.Index, e.Window.Start, e.Window.End, e.Err.Error())
	}
	return fmt.Sprintf("window %d [%d, %d) recipe %s: %s", e.Window.Index, e.Window.Start, e.Window.End, e.Recipe, e.Err.Error())
}

func (e *WindowError) Unwrap() error {
	return e.Err
}
