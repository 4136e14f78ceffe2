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

package pgxmockhelper

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/pashagolub/pgxmock"
	"github.com/rs/zerolog/log"
)

// CSVRows turns a CSV fixture into pgxmock rows. Columns listed in the type map are converted to `date`
// (2006-01-02) or `float64`; all others are passed through as strings.
type CSVRows struct {
	rows    [][]any
	header  []string
	dateCol int
}

func NewCSVRows(csvFn string, typeMap map[string]string) *CSVRows {
	subLog := log.With().Str("CsvFn", csvFn).Logger()

	rows := &CSVRows{
		dateCol: -1,
		rows:    make([][]any, 0),
	}
	rawData, err := os.ReadFile(csvFn)
	if err != nil {
		subLog.Panic().Err(err).Msg("could not read file")
	}

	// break raw data into an array of lines
	lines := strings.Split(string(rawData), "\n")

	// sanity checks:
	// - array length is at least 2 (header + trailing newline)
	// - make sure last line ends in newline
	if len(lines) < 2 {
		subLog.Panic().Int("NumLines", len(lines)).Msg("input file does not have enough lines, need at least 2 (header + trailing new line)")
	}
	if lines[len(lines)-1] != "" {
		subLog.Panic().Msg("input file is missing a trailing new line")
	}

	rows.header = strings.Split(lines[0], ",")
	lines = lines[1 : len(lines)-1] // discard first and last rows

	for _, ll := range lines {
		cols := make([]any, len(rows.header))
		parts := strings.Split(ll, ",")
		for idx, val := range parts {
			colName := rows.header[idx]
			switch typeMap[colName] {
			case "date":
				parsed, err := time.Parse("2006-01-02", val)
				if err != nil {
					subLog.Panic().Err(err).Str("Val", val).Msg("could not convert val to datetime of format 2006-01-02")
				}
				cols[idx] = parsed
				rows.dateCol = idx
			case "float64":
				parsed, err := strconv.ParseFloat(val, 64)
				if err != nil {
					subLog.Panic().Err(err).Str("Val", val).Msg("could not convert val to float64")
				}
				cols[idx] = parsed
			default:
				cols[idx] = val
			}
		}
		rows.rows = append(rows.rows, cols)
	}

	return rows
}

// Between keeps rows whose date column is in [a, b]
func (csvRows *CSVRows) Between(a time.Time, b time.Time) *CSVRows {
	newRows := make([][]any, 0, len(csvRows.rows))
	if len(csvRows.rows) == 0 {
		return csvRows
	}
	if csvRows.dateCol == -1 {
		log.Panic().Time("a", a).Time("b", b).Msg("no date column found")
	}
	for _, row := range csvRows.rows {
		t := row[csvRows.dateCol].(time.Time)
		if (t.Before(b) || t.Equal(b)) && (t.After(a) || t.Equal(a)) {
			newRows = append(newRows, row)
		}
	}
	csvRows.rows = newRows
	return csvRows
}

// Where keeps rows whose column col equals val and then drops that column
func (csvRows *CSVRows) Where(col, val string) *CSVRows {
	colIdx := -1
	for idx, name := range csvRows.header {
		if name == col {
			colIdx = idx
		}
	}
	if colIdx == -1 {
		log.Panic().Str("Column", col).Msg("column not found")
	}

	newRows := make([][]any, 0, len(csvRows.rows))
	for _, row := range csvRows.rows {
		if row[colIdx] == val {
			newRow := append(append([]any{}, row[:colIdx]...), row[colIdx+1:]...)
			newRows = append(newRows, newRow)
		}
	}

	csvRows.header = append(append([]string{}, csvRows.header[:colIdx]...), csvRows.header[colIdx+1:]...)
	if csvRows.dateCol > colIdx {
		csvRows.dateCol--
	}
	csvRows.rows = newRows
	return csvRows
}

func (csvRows *CSVRows) Rows() *pgxmock.Rows {
	r := pgxmock.NewRows(csvRows.header)
	for _, row := range csvRows.rows {
		r.AddRow(row...)
	}
	return r
}

// ExpectTrx registers the begin and (optional) role switch issued by database.TrxForRole
func ExpectTrx(db pgxmock.PgxConnIface, role string) {
	db.ExpectBegin()
	if role != "" {
		db.ExpectExec("SET ROLE").WillReturnResult(pgconn.CommandTag("SET ROLE"))
	}
}

// MockReturnsQuery expects the index_returns query for index and answers it from the fixture fn
func MockReturnsQuery(db pgxmock.PgxConnIface, fn, index, role string) {
	ExpectTrx(db, role)
	db.ExpectQuery("SELECT event_date, ticker, ret FROM index_returns").WithArgs(index).WillReturnRows(
		NewCSVRows(fn, map[string]string{
			"event_date": "date",
			"ret":        "float64",
		}).Where("index_name", index).Rows())
	db.ExpectCommit()
}

// MockMarketCapsQuery expects the index_market_caps query for index and answers it from the fixture fn
func MockMarketCapsQuery(db pgxmock.PgxConnIface, fn, index, role string) {
	ExpectTrx(db, role)
	db.ExpectQuery("SELECT ticker, market_cap FROM index_market_caps").WithArgs(index).WillReturnRows(
		NewCSVRows(fn, map[string]string{
			"market_cap": "float64",
		}).Where("index_name", index).Rows())
	db.ExpectCommit()
}
