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

	"github.com/penny-vault/pvopt/data/database"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the pvopt database tables",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := connectDatabase(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}

		if err := database.Migrate(ctx, viper.GetString("database.role")); err != nil {
			log.Fatal().Err(err).Msg("could not migrate database")
		}

		log.Info().Msg("database is up to date")
	},
}
