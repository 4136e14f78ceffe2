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

package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/penny-vault/pvopt/data/database"
	"github.com/penny-vault/pvopt/dataframe"
	"github.com/rs/zerolog/log"
)

// Pg replaces the stored weights and backtest returns of an identifier in PostgreSQL
type Pg struct {
	Role string
}

func NewPg(role string) *Pg {
	return &Pg{Role: role}
}

func (p *Pg) WriteWeights(ctx context.Context, identifier string, weights *dataframe.DataFrame[string]) error {
	rows := make([][]interface{}, 0, weights.Len()*weights.ColCount())
	for colIdx, recipe := range weights.ColNames {
		for rowIdx, ticker := range weights.Index {
			rows = append(rows, []interface{}{identifier, ticker, recipe, weights.Vals[colIdx][rowIdx]})
		}
	}

	return p.replace(ctx, identifier, "portfolio_weights", []string{"index_name", "ticker", "recipe", "weight"}, rows)
}

func (p *Pg) WriteBacktest(ctx context.Context, identifier string, returns *dataframe.DataFrame[time.Time]) error {
	rows := make([][]interface{}, 0, returns.Len()*returns.ColCount())
	for colIdx, recipe := range returns.ColNames {
		for rowIdx, dt := range returns.Index {
			rows = append(rows, []interface{}{identifier, dt, recipe, returns.Vals[colIdx][rowIdx]})
		}
	}

	return p.replace(ctx, identifier, "backtest_returns", []string{"index_name", "event_date", "recipe", "ret"}, rows)
}

func (p *Pg) replace(ctx context.Context, identifier, table string, columns []string, rows [][]interface{}) error {
	subLog := log.With().Str("Identifier", identifier).Str("Table", table).Logger()

	trx, err := database.TrxForRole(ctx, p.Role)
	if err != nil {
		subLog.Error().Err(err).Msg("could not get a database transaction")
		return err
	}

	ident := pgx.Identifier{table}
	if _, err := trx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE index_name=$1", ident.Sanitize()), identifier); err != nil {
		subLog.Error().Err(err).Msg("could not delete previous results")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Err(err).Msg("could not rollback transaction")
		}
		return err
	}

	n, err := trx.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(rows))
	if err != nil {
		subLog.Error().Err(err).Int("Rows", len(rows)).Msg("could not copy results")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Err(err).Msg("could not rollback transaction")
		}
		return err
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Error().Err(err).Msg("could not commit transaction")
		return err
	}

	subLog.Info().Int64("Rows", n).Msg("saved results to database")
	return nil
}
