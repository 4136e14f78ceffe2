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
	"errors"
	"fmt"
)

var (
	ErrDataUnavailable   = errors.New("data unavailable")
	ErrUnknownIdentifier = fmt.Errorf("%w: unknown identifier", ErrDataUnavailable)
	ErrMissingMarketCap  = fmt.Errorf("%w: missing market cap", ErrDataUnavailable)
	ErrMalformedData     = errors.New("malformed data")
	ErrUnknownSource     = errors.New("unknown data source")
	ErrUnknownFrequency  = errors.New("unknown frequency")
)
