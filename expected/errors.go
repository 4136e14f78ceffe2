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

package expected

import (
	"errors"
	"fmt"
)

var (
	ErrDimensionMismatch    = errors.New("asset dimensions do not match")
	ErrInsufficientData     = errors.New("insufficient data to estimate expected returns")
	ErrInvalidConfiguration = errors.New("invalid expected return configuration")
	ErrNonPositiveGrowth    = errors.New("compounded growth is not positive")
	ErrUnknownModel         = fmt.Errorf("%w: unknown expected return model", ErrInvalidConfiguration)
)
