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

	"github.com/penny-vault/pvopt/backtest"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	backtestCmd.Flags().Int("window", backtest.DefaultWindowSize, "Number of periods in each estimation window")
	viper.BindPFlag("backtest.window", backtestCmd.Flags().Lookup("window"))

	rootCmd.AddCommand(backtestCmd)
}

var backtestCmd = &cobra.Command{
	Use:   "backtest [flags] [index...]",
	Short: "Backtest the portfolios of one or more indices over rolling windows",
	Long: `Estimate every portfolio in the plan on a rolling window of returns and hold it for the period that
follows the window. The out of sample returns and their summary metrics are written to the output.`,
	Run: func(cmd *cobra.Command, args []string) {
		defer setupTracing()()

		window := viper.GetInt("backtest.window")
		if window < 1 {
			log.Fatal().Int("Window", window).Msg("window must be at least 1")
		}

		ctx := context.Background()
		run, err := newRunner(ctx, window)
		if err != nil {
			log.Fatal().Err(err).Msg("could not configure runner")
		}

		runAll(ctx, run, args)
	},
}
