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

package runner

import (
	"fmt"
	"strings"
)

// Policy decides what happens to the remaining identifiers once one fails
type Policy int

const (
	// Skip logs the failure, records it in the report and moves on
	Skip Policy = iota
	// Abort stops the run at the first failure
	Abort
)

func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "skip":
		return Skip, nil
	case "abort":
		return Abort, nil
	default:
		return Skip, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

func (p Policy) String() string {
	switch p {
	case Skip:
		return "skip"
	case Abort:
		return "abort"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}
