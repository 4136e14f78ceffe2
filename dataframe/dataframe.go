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

package dataframe

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// Get index of specified column; returns -1 if column doesn't exist
func (df *DataFrame[T]) ColIndex(colName string) int {
	for idx, val := range df.ColNames {
		if colName == val {
			return idx
		}
	}

	return -1
}

// ColCount returns the number of columns in the dataframe
func (df *DataFrame[T]) ColCount() int {
	return len(df.ColNames)
}

// Column returns the values of the named column or nil if it does not exist
func (df *DataFrame[T]) Column(colName string) []float64 {
	idx := df.ColIndex(colName)
	if idx == -1 {
		return nil
	}
	return df.Vals[idx]
}

// Copy creates a deep copy of the dataframe
func (df *DataFrame[T]) Copy() *DataFrame[T] {
	df2 := &DataFrame[T]{
		ColNames: make([]string, len(df.ColNames)),
		Index:    make([]T, len(df.Index)),
		Vals:     make([][]float64, len(df.Vals)),
	}

	copy(df2.ColNames, df.ColNames)
	copy(df2.Index, df.Index)

	for idx := range df2.Vals {
		df2.Vals[idx] = make([]float64, len(df.Vals[idx]))
		copy(df2.Vals[idx], df.Vals[idx])
	}

	return df2
}

// Drop removes rows that contain the value `val` from the dataframe
func (df *DataFrame[T]) Drop(val float64) *DataFrame[T] {
	isNA := math.IsNaN(val)
	newVals := make([][]float64, len(df.Vals))
	newIndex := make([]T, 0, len(df.Index))

	for idx, rowIdx := range df.Index {
		keep := true
		for _, col := range df.Vals {
			rowVal := col[idx]
			keep = keep && !(rowVal == val || (isNA && math.IsNaN(rowVal)))
			if !keep {
				break
			}
		}

		if keep {
			newIndex = append(newIndex, rowIdx)
			for colIdx, col := range df.Vals {
				newVals[colIdx] = append(newVals[colIdx], col[idx])
			}
		}
	}

	for colIdx := range newVals {
		if newVals[colIdx] == nil {
			newVals[colIdx] = []float64{}
		}
	}

	df.Vals = newVals
	df.Index = newIndex
	return df
}

// End returns the last time in the DataFrame
func (df *DataFrame[T]) End() time.Time {
	if len(df.Index) == 0 {
		return time.Time{}
	}

	if lastDate, ok := any(df.Index[len(df.Index)-1]).(time.Time); ok {
		return lastDate
	}

	return time.Time{}
}

// Insert a new column to the end of the dataframe
func (df *DataFrame[T]) Insert(name string, col []float64) *DataFrame[T] {
	df.ColNames = append(df.ColNames, name)
	df.Vals = append(df.Vals, col)
	return df
}

// InsertRow adds a new row to the dataframe. For date indexed dataframes the date must be after the last date in the
// dataframe and vals must equal the number of columns. If either of these conditions are not met then panic
func (df *DataFrame[T]) InsertRow(idx T, vals ...float64) *DataFrame[T] {
	if len(df.Index) != 0 {
		if last, ok := any(df.Index[len(df.Index)-1]).(time.Time); ok {
			newDate := any(idx).(time.Time)
			if !last.Before(newDate) {
				log.Panic().Time("lastDate", last).Time("newDate", newDate).Msg("newDate must be after lastDate")
			}
		}
	}

	if len(vals) != len(df.ColNames) {
		log.Panic().Int("NumValsPassed", len(vals)).Int("NumColumns", len(df.ColNames)).Msg("number of vals passed must equal number of columns")
	}

	if len(df.Vals) != len(df.ColNames) {
		df.Vals = make([][]float64, len(df.ColNames))
	}

	df.Index = append(df.Index, idx)
	for colIdx := range df.ColNames {
		df.Vals[colIdx] = append(df.Vals[colIdx], vals[colIdx])
	}

	return df
}

// Len returns the number of rows in the dataframe
func (df *DataFrame[T]) Len() int {
	return len(df.Index)
}

// Matrix returns the values as a rows x cols gonum matrix (one row per index entry)
func (df *DataFrame[T]) Matrix() *mat.Dense {
	if df.Len() == 0 || df.ColCount() == 0 {
		return nil
	}

	m := mat.NewDense(df.Len(), df.ColCount(), nil)
	for colIdx, col := range df.Vals {
		m.SetCol(colIdx, col)
	}
	return m
}

// Row returns a copy of the values in row idx ordered by column
func (df *DataFrame[T]) Row(idx int) []float64 {
	row := make([]float64, len(df.Vals))
	for colIdx, col := range df.Vals {
		row[colIdx] = col[idx]
	}
	return row
}

// Select returns a new dataframe holding only the requested columns in the requested order. Columns that
// do not exist are reported in the second return value
func (df *DataFrame[T]) Select(columns ...string) (*DataFrame[T], []string) {
	res := &DataFrame[T]{
		Index:    df.Index,
		ColNames: make([]string, 0, len(columns)),
		Vals:     make([][]float64, 0, len(columns)),
	}

	missing := []string{}
	for _, col := range columns {
		idx := df.ColIndex(col)
		if idx == -1 {
			missing = append(missing, col)
			continue
		}
		res.ColNames = append(res.ColNames, col)
		res.Vals = append(res.Vals, df.Vals[idx])
	}

	return res, missing
}

// Start returns the first date of the dataframe
func (df *DataFrame[T]) Start() time.Time {
	if len(df.Index) == 0 {
		return time.Time{}
	}

	if firstDate, ok := any(df.Index[0]).(time.Time); ok {
		return firstDate
	}

	return time.Time{}
}

// Table prints an ASCII formatted table to stdout
func (df *DataFrame[T]) Table() string {
	if len(df.Index) == 0 {
		return "<NO DATA>" // nothing to do as there is no data available in the dataframe
	}

	// construct table header
	tableCols := append([]string{"Index"}, df.ColNames...)

	// initialize table
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader(tableCols)
	footer := make([]string, len(tableCols))
	footer[0] = "Num Rows"
	if len(footer) > 1 {
		footer[1] = fmt.Sprintf("%d", df.Len())
	}
	table.SetFooter(footer)
	table.SetBorder(false) // Set Border to false

	for idx := range df.Index {
		row := make([]string, 0, len(df.Vals)+1)
		row = append(row, df.IndexString(idx))
		for _, col := range df.Vals {
			row = append(row, fmt.Sprintf("%.4f", col[idx]))
		}

		table.Append(row)
	}

	table.Render()
	return s.String()
}

// IndexString formats the index value at row idx; dates use the YYYY-MM-DD layout
func (df *DataFrame[T]) IndexString(idx int) string {
	switch v := any(df.Index[idx]).(type) {
	case time.Time:
		return v.Format("2006-01-02")
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Trim the dataframe to the specified date range (inclusive)
// NOTE: If T is not time.Time then the dataframe is returned unchanged
func (df *DataFrame[T]) Trim(begin, end time.Time) *DataFrame[T] {
	df2 := &DataFrame[T]{
		ColNames: df.ColNames,
		Index:    df.Index,
		Vals:     make([][]float64, len(df.Vals)),
	}
	copy(df2.Vals, df.Vals)

	var (
		first time.Time
		last  time.Time
		ok    bool
	)

	empty := func() *DataFrame[T] {
		df2.Index = []T{}
		for colIdx := range df2.Vals {
			df2.Vals[colIdx] = []float64{}
		}
		return df2
	}

	// special case 0: requested range is invalid
	if end.Before(begin) {
		return empty()
	}

	// special case 1: data frame is empty
	if df.Len() == 0 {
		return df2
	}

	// ensure that index is a date index
	if first, ok = any(df.Index[0]).(time.Time); !ok {
		return df2
	}

	if last, ok = any(df.Index[len(df.Index)-1]).(time.Time); !ok {
		return df2
	}

	// special case 2: end time is before data frame start
	// special case 3: start time is after data frame end
	if end.Before(first) || begin.After(last) {
		return empty()
	}

	// Use binary search to find the index corresponding to the start and end times
	beginIdx := sort.Search(len(df.Index), func(i int) bool {
		idxVal := any(df.Index[i]).(time.Time)
		return !idxVal.Before(begin)
	})

	endIdx := sort.Search(len(df.Index), func(i int) bool {
		idxVal := any(df.Index[i]).(time.Time)
		return idxVal.After(end)
	})

	df2.Index = df.Index[beginIdx:endIdx]
	for colIdx, col := range df.Vals {
		df2.Vals[colIdx] = col[beginIdx:endIdx]
	}

	return df2
}

// Validate checks the invariants of a return series: at least one column, unique non-empty column names,
// every column as long as the index, no NaN values and (for date indexes) strictly increasing dates
func (df *DataFrame[T]) Validate() error {
	if len(df.ColNames) == 0 {
		return ErrNoColumns
	}

	if len(df.Vals) != len(df.ColNames) {
		return fmt.Errorf("%w: %d columns named but %d present", ErrColumnLength, len(df.ColNames), len(df.Vals))
	}

	seen := make(map[string]bool, len(df.ColNames))
	for colIdx, name := range df.ColNames {
		if name == "" {
			return ErrEmptyColumnName
		}
		if seen[name] {
			return fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
		}
		seen[name] = true

		col := df.Vals[colIdx]
		if len(col) != len(df.Index) {
			return fmt.Errorf("%w: column %s has %d rows, index has %d", ErrColumnLength, name, len(col), len(df.Index))
		}
		for rowIdx, v := range col {
			if math.IsNaN(v) {
				return fmt.Errorf("%w: column %s row %d", ErrContainsNaN, name, rowIdx)
			}
		}
	}

	for ii := 1; ii < len(df.Index); ii++ {
		prev, ok := any(df.Index[ii-1]).(time.Time)
		if !ok {
			break
		}
		curr := any(df.Index[ii]).(time.Time)
		if !prev.Before(curr) {
			return fmt.Errorf("%w: %s is not before %s", ErrIndexNotIncreasing, prev.Format("2006-01-02"), curr.Format("2006-01-02"))
		}
	}

	return nil
}

// Window returns a view of rows [start, end). The returned dataframe shares memory with df and must not be
// modified.
func (df *DataFrame[T]) Window(start, end int) (*DataFrame[T], error) {
	if start < 0 || end > df.Len() || start >= end {
		return nil, fmt.Errorf("%w: [%d, %d) of %d rows", ErrInvalidRange, start, end, df.Len())
	}

	view := &DataFrame[T]{
		Index:    df.Index[start:end],
		ColNames: df.ColNames,
		Vals:     make([][]float64, len(df.Vals)),
	}

	for colIdx, col := range df.Vals {
		view.Vals[colIdx] = col[start:end]
	}

	return view, nil
}
