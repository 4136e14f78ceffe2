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
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/pvopt/dataframe"
	imports "github.com/rocketlaunchr/dataframe-go/imports"
	"github.com/rs/zerolog/log"
)

const (
	dateColumn = "date"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01",
}

// floatConverter maps empty cells to NaN (missing); any other cell must be a number
var floatConverter = imports.Converter{
	ConcreteType: float64(0),
	ConverterFunc: func(in interface{}) (interface{}, error) {
		cell := strings.TrimSpace(in.(string))
		if cell == "" {
			return math.NaN(), nil
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot parse number %q", ErrMalformedData, cell)
		}
		return v, nil
	},
}

var dateConverter = imports.Converter{
	ConcreteType: time.Time{},
	ConverterFunc: func(in interface{}) (interface{}, error) {
		return parseDate(in.(string))
	},
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if dt, err := time.Parse(layout, s); err == nil {
			return dt, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse date %q", ErrMalformedData, s)
}

// splitHeader separates the header row from the body of a CSV document
func splitHeader(body []byte) ([]string, []byte, error) {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	nl := bytes.IndexByte(body, '\n')
	if nl == -1 {
		return nil, nil, fmt.Errorf("%w: csv has no data rows", ErrMalformedData)
	}

	header, err := csv.NewReader(bytes.NewReader(body[:nl])).Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrMalformedData, err.Error())
	}

	for idx := range header {
		header[idx] = strings.TrimSpace(header[idx])
	}

	return header, body[nl+1:], nil
}

// ParseReturns reads a wide return table: the first column holds the period date and every other column the
// returns of one asset. Rows with missing values are dropped and rows are sorted chronologically.
func ParseReturns(ctx context.Context, body []byte) (*dataframe.DataFrame[time.Time], error) {
	header, rows, err := splitHeader(body)
	if err != nil {
		return nil, err
	}

	if len(header) < 2 {
		return nil, fmt.Errorf("%w: expected a date column and at least one asset column", ErrMalformedData)
	}

	// pandas writes an unnamed index column
	header[0] = dateColumn

	types := make(map[string]interface{}, len(header))
	types[dateColumn] = dateConverter
	for _, asset := range header[1:] {
		if asset == "" || asset == dateColumn {
			return nil, fmt.Errorf("%w: invalid asset column name %q", ErrMalformedData, asset)
		}
		if _, ok := types[asset]; ok {
			return nil, fmt.Errorf("%w: duplicate asset column %s", ErrMalformedData, asset)
		}
		types[asset] = floatConverter
	}

	df, err := imports.LoadFromCSV(ctx, bytes.NewReader(rows), imports.CSVLoadOptions{
		Headers:         header,
		DictateDataType: types,
	})
	if err != nil {
		log.Warn().Err(err).Msg("could not load returns csv")
		return nil, fmt.Errorf("%w: %s", ErrMalformedData, err.Error())
	}

	nRows := df.NRows()
	res := &dataframe.DataFrame[time.Time]{
		Index:    make([]time.Time, nRows),
		ColNames: header[1:],
		Vals:     make([][]float64, len(header)-1),
	}

	for colIdx := range res.Vals {
		res.Vals[colIdx] = make([]float64, nRows)
	}

	for seriesIdx, series := range df.Series {
		for row := 0; row < nRows; row++ {
			if seriesIdx == 0 {
				dt, ok := timeValue(series.Value(row))
				if !ok {
					return nil, fmt.Errorf("%w: row %d has no date", ErrMalformedData, row+1)
				}
				res.Index[row] = dt
				continue
			}
			res.Vals[seriesIdx-1][row] = floatValue(series.Value(row))
		}
	}

	res = sortByDate(res)
	complete := res.Drop(math.NaN())
	if dropped := nRows - complete.Len(); dropped > 0 {
		log.Debug().Int("Dropped", dropped).Int("Rows", nRows).Msg("dropped rows with missing returns")
	}
	res = complete
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedData, err.Error())
	}

	if res.Len() == 0 {
		return nil, fmt.Errorf("%w: no complete rows", ErrDataUnavailable)
	}

	return res, nil
}

// ParseMarketCaps reads a two column table of asset identifier and market cap
func ParseMarketCaps(ctx context.Context, body []byte) (*MarketCaps, error) {
	header, rows, err := splitHeader(body)
	if err != nil {
		return nil, err
	}

	if len(header) != 2 || header[0] == header[1] {
		return nil, fmt.Errorf("%w: expected two columns (asset, market cap), got %v", ErrMalformedData, header)
	}

	df, err := imports.LoadFromCSV(ctx, bytes.NewReader(rows), imports.CSVLoadOptions{
		Headers: header,
		DictateDataType: map[string]interface{}{
			header[0]: "",
			header[1]: floatConverter,
		},
	})
	if err != nil {
		log.Warn().Err(err).Msg("could not load market cap csv")
		return nil, fmt.Errorf("%w: %s", ErrMalformedData, err.Error())
	}

	nRows := df.NRows()
	mc := &MarketCaps{
		Assets: make([]string, 0, nRows),
		Values: make([]float64, 0, nRows),
	}

	seen := make(map[string]bool, nRows)
	for row := 0; row < nRows; row++ {
		asset, ok := stringValue(df.Series[0].Value(row))
		if !ok || asset == "" {
			return nil, fmt.Errorf("%w: row %d has no asset", ErrMalformedData, row+1)
		}
		if seen[asset] {
			return nil, fmt.Errorf("%w: duplicate market cap for %s", ErrMalformedData, asset)
		}
		seen[asset] = true

		val := floatValue(df.Series[1].Value(row))
		if math.IsNaN(val) || val < 0 {
			return nil, fmt.Errorf("%w: invalid market cap for %s", ErrMalformedData, asset)
		}

		mc.Assets = append(mc.Assets, asset)
		mc.Values = append(mc.Values, val)
	}

	if len(mc.Assets) == 0 {
		return nil, fmt.Errorf("%w: no market caps", ErrDataUnavailable)
	}

	return mc, nil
}

func sortByDate(df *dataframe.DataFrame[time.Time]) *dataframe.DataFrame[time.Time] {
	if sort.SliceIsSorted(df.Index, func(i, j int) bool { return df.Index[i].Before(df.Index[j]) }) {
		return df
	}

	order := make([]int, df.Len())
	for idx := range order {
		order[idx] = idx
	}
	sort.SliceStable(order, func(i, j int) bool { return df.Index[order[i]].Before(df.Index[order[j]]) })

	sorted := &dataframe.DataFrame[time.Time]{
		Index:    make([]time.Time, len(order)),
		ColNames: df.ColNames,
		Vals:     make([][]float64, len(df.Vals)),
	}
	for colIdx := range sorted.Vals {
		sorted.Vals[colIdx] = make([]float64, len(order))
	}
	for newIdx, oldIdx := range order {
		sorted.Index[newIdx] = df.Index[oldIdx]
		for colIdx, col := range df.Vals {
			sorted.Vals[colIdx][newIdx] = col[oldIdx]
		}
	}
	return sorted
}

func timeValue(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	default:
		return time.Time{}, false
	}
}

func floatValue(v interface{}) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case *float64:
		if f != nil {
			return *f
		}
	}
	return math.NaN()
}

func stringValue(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), true
	case *string:
		if s != nil {
			return strings.TrimSpace(*s), true
		}
	}
	return "", false
}
