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

package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(weightsCmd)
}

var weightsCmd = &cobra.Command{
	Use:   "weights [flags] [index...]",
	Short: "Compute the portfolio weights of one or more indices",
	Long: `Compute the weight table of every portfolio in the plan from the full return history of each index.
All known indices are used when none are given.`,
	Run: func(cmd *cobra.Command, args []string) {
		defer setupTracing()()

		ctx := context.Background()
		run, err := newRunner(ctx, 0)
		if err != nil {
			log.Fatal().Err(err).Msg("could not configure runner")
		}

		runAll(ctx, run, args)
	},
}
