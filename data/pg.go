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
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/penny-vault/pvopt/data/database"
	"github.com/penny-vault/pvopt/dataframe"
	"github.com/penny-vault/pvopt/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PgSource reads returns and market caps from the index_returns and index_market_caps tables
type PgSource struct {
	Role string
}

func NewPgSource(role string) *PgSource {
	return &PgSource{
		Role: role,
	}
}

// GetReturns pivots the (event_date, ticker, ret) rows of the index into a return series with one column per
// ticker in alphabetical order. Dates where any ticker is missing are dropped.
func (p *PgSource) GetReturns(ctx context.Context, identifier string) (*dataframe.DataFrame[time.Time], error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "pg.GetReturns")
	defer span.End()

	span.SetAttributes(attribute.String("Identifier", identifier))
	subLog := log.With().Str("Identifier", identifier).Logger()

	trx, err := database.TrxForRole(ctx, p.Role)
	if err != nil {
		span.RecordError(err)
		msg := "could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Stack().Err(err).Msg(msg)
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, err.Error())
	}

	rows, err := trx.Query(ctx, "SELECT event_date, ticker, ret FROM index_returns WHERE index_name=$1 ORDER BY event_date, ticker", identifier)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "database query failed")
		subLog.Error().Stack().Err(err).Msg("could not query index returns")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, err.Error())
	}

	dates := make([]time.Time, 0, 256)
	values := make(map[string]map[time.Time]float64)

	for rows.Next() {
		var (
			dt     time.Time
			ticker string
			ret    float64
		)

		if err := rows.Scan(&dt, &ticker, &ret); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not scan index returns")
			rows.Close()
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, fmt.Errorf("%w: %s", ErrMalformedData, err.Error())
		}

		if len(dates) == 0 || !dates[len(dates)-1].Equal(dt) {
			dates = append(dates, dt)
		}

		col, ok := values[ticker]
		if !ok {
			col = make(map[time.Time]float64)
			values[ticker] = col
		}
		col[dt] = ret
	}

	if err := rows.Err(); err != nil {
		subLog.Error().Stack().Err(err).Msg("index returns query read failed")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, err.Error())
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	if len(dates) == 0 {
		span.SetStatus(codes.Error, "no returns found")
		return nil, fmt.Errorf("%w: %s", ErrUnknownIdentifier, identifier)
	}

	tickers := make([]string, 0, len(values))
	for ticker := range values {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	df := &dataframe.DataFrame[time.Time]{
		Index:    dates,
		ColNames: tickers,
		Vals:     make([][]float64, len(tickers)),
	}

	for colIdx, ticker := range tickers {
		col := make([]float64, len(dates))
		for rowIdx, dt := range dates {
			if v, ok := values[ticker][dt]; ok {
				col[rowIdx] = v
			} else {
				col[rowIdx] = math.NaN()
			}
		}
		df.Vals[colIdx] = col
	}

	df = df.Drop(math.NaN())
	if df.Len() == 0 {
		return nil, fmt.Errorf("%w: %s has no complete periods", ErrDataUnavailable, identifier)
	}

	if err := df.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedData, err.Error())
	}

	span.SetAttributes(
		attribute.Int("Periods", df.Len()),
		attribute.Int("Assets", df.ColCount()),
	)
	return df, nil
}

func (p *PgSource) GetMarketCaps(ctx context.Context, identifier string) (*MarketCaps, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "pg.GetMarketCaps")
	defer span.End()

	span.SetAttributes(attribute.String("Identifier", identifier))
	subLog := log.With().Str("Identifier", identifier).Logger()

	trx, err := database.TrxForRole(ctx, p.Role)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not get a database transaction")
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, err.Error())
	}

	rows, err := trx.Query(ctx, "SELECT ticker, market_cap FROM index_market_caps WHERE index_name=$1 ORDER BY ticker", identifier)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "database query failed")
		subLog.Error().Stack().Err(err).Msg("could not query market caps")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, err.Error())
	}

	mc := &MarketCaps{}
	for rows.Next() {
		var (
			ticker string
			val    float64
		)
		if err := rows.Scan(&ticker, &val); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not scan market caps")
			rows.Close()
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, fmt.Errorf("%w: %s", ErrMalformedData, err.Error())
		}
		mc.Assets = append(mc.Assets, ticker)
		mc.Values = append(mc.Values, val)
	}

	if err := rows.Err(); err != nil {
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, err.Error())
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	if len(mc.Assets) == 0 {
		span.SetStatus(codes.Error, "no market caps found")
		return nil, fmt.Errorf("%w: %s", ErrUnknownIdentifier, identifier)
	}

	return mc, nil
}
