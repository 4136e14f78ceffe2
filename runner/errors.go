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
	"errors"
	"fmt"
)

var (
	ErrUnknownPolicy = errors.New("unknown error policy")
	ErrNoSource      = errors.New("runner has no return data source")
	ErrNoSink        = errors.New("runner has no result sink")
	ErrNoIdentifiers = errors.New("no identifiers requested")
)

// IdentifierError records the failure of a single identifier
type IdentifierError struct {
	Identifier string
	Stage      string
	Err        error
}

func (e *IdentifierError) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Identifier, e.Stage, e.Err)
}

func (e *IdentifierError) Unwrap() error {
	return e.Err
}
