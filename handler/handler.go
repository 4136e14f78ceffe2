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

package handler

import (
	"github.com/penny-vault/pvopt/portfolio"
	"github.com/penny-vault/pvopt/runner"
	"github.com/penny-vault/pvopt/strategies"
)

// Handler serves the pvopt API. Plan and Solver are used for requests that do not override them; Runner answers
// the index endpoints and may be nil when no data source is configured.
type Handler struct {
	Plan    *strategies.Plan
	Solver  *portfolio.Solver
	Runner  *runner.Runner
	Workers int
}

func New(plan *strategies.Plan, solver *portfolio.Solver, run *runner.Runner) *Handler {
	return &Handler{
		Plan:   plan,
		Solver: solver,
		Runner: run,
	}
}
