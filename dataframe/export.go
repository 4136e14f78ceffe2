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
	"context"
	"io"
	"math"

	"github.com/goccy/go-json"
	dfgo "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/exports"
)

// Document is the serializable form of a dataframe: index values are formatted with IndexString and values are
// stored column major
type Document struct {
	IndexName string      `json:"indexName,omitempty"`
	Index     []string    `json:"index"`
	Columns   []string    `json:"columns"`
	Values    [][]float64 `json:"values"`
}

// document is the wire form of Document; NaN and infinite values are encoded as null
type document struct {
	IndexName string       `json:"indexName,omitempty"`
	Index     []string     `json:"index"`
	Columns   []string     `json:"columns"`
	Values    [][]*float64 `json:"values"`
}

func (doc Document) MarshalJSON() ([]byte, error) {
	wire := document{
		IndexName: doc.IndexName,
		Index:     doc.Index,
		Columns:   doc.Columns,
		Values:    make([][]*float64, len(doc.Values)),
	}

	for colIdx, col := range doc.Values {
		wire.Values[colIdx] = make([]*float64, len(col))
		for rowIdx := range col {
			if math.IsNaN(col[rowIdx]) || math.IsInf(col[rowIdx], 0) {
				continue
			}
			wire.Values[colIdx][rowIdx] = &col[rowIdx]
		}
	}

	return json.Marshal(wire)
}

func (doc *Document) UnmarshalJSON(b []byte) error {
	var wire document
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}

	doc.IndexName = wire.IndexName
	doc.Index = wire.Index
	doc.Columns = wire.Columns
	doc.Values = make([][]float64, len(wire.Values))
	for colIdx, col := range wire.Values {
		doc.Values[colIdx] = make([]float64, len(col))
		for rowIdx, v := range col {
			if v == nil {
				doc.Values[colIdx][rowIdx] = math.NaN()
				continue
			}
			doc.Values[colIdx][rowIdx] = *v
		}
	}

	return nil
}

// Document converts the dataframe to its serializable form; the returned document shares Values with df
func (df *DataFrame[T]) Document(indexName string) *Document {
	doc := &Document{
		IndexName: indexName,
		Index:     make([]string, df.Len()),
		Columns:   df.ColNames,
		Values:    df.Vals,
	}

	for idx := range df.Index {
		doc.Index[idx] = df.IndexString(idx)
	}

	return doc
}

// ToCSV writes the dataframe as CSV with the index as the first column named indexName
func (df *DataFrame[T]) ToCSV(ctx context.Context, w io.Writer, indexName string) error {
	series := make([]dfgo.Series, 0, df.ColCount()+1)

	index := make([]interface{}, df.Len())
	for idx := range df.Index {
		index[idx] = df.IndexString(idx)
	}
	series = append(series, dfgo.NewSeriesString(indexName, &dfgo.SeriesInit{Capacity: df.Len()}, index...))

	for colIdx, name := range df.ColNames {
		vals := make([]interface{}, len(df.Vals[colIdx]))
		for idx, v := range df.Vals[colIdx] {
			vals[idx] = v
		}
		series = append(series, dfgo.NewSeriesFloat64(name, &dfgo.SeriesInit{Capacity: len(vals)}, vals...))
	}

	return exports.ExportToCSV(ctx, w, dfgo.NewDataFrame(series...))
}
