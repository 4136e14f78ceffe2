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

package database

import (
	"context"

	"github.com/rs/zerolog/log"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS index_returns (
		index_name TEXT NOT NULL,
		event_date DATE NOT NULL,
		ticker TEXT NOT NULL,
		ret DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (index_name, event_date, ticker)
	)`,
	`CREATE TABLE IF NOT EXISTS index_market_caps (
		index_name TEXT NOT NULL,
		ticker TEXT NOT NULL,
		market_cap DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (index_name, ticker)
	)`,
	`CREATE TABLE IF NOT EXISTS portfolio_weights (
		index_name TEXT NOT NULL,
		ticker TEXT NOT NULL,
		recipe TEXT NOT NULL,
		weight DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (index_name, ticker, recipe)
	)`,
	`CREATE TABLE IF NOT EXISTS backtest_returns (
		index_name TEXT NOT NULL,
		event_date DATE NOT NULL,
		recipe TEXT NOT NULL,
		ret DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (index_name, event_date, recipe)
	)`,
}

// Migrate creates the pvopt tables if they do not exist
func Migrate(ctx context.Context, role string) error {
	trx, err := TrxForRole(ctx, role)
	if err != nil {
		return err
	}

	for _, stmt := range schema {
		if _, err := trx.Exec(ctx, stmt); err != nil {
			log.Error().Err(err).Str("Query", stmt).Msg("could not create table")
			if err := trx.Rollback(ctx); err != nil {
				log.Error().Err(err).Msg("could not rollback transaction")
			}
			return err
		}
	}

	return trx.Commit(ctx)
}
