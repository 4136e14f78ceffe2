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
	"io"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pvopt/dataframe"
)

// JSON writes every result as one JSON document per line
type JSON struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// Record is the JSON document written for each result
type Record struct {
	Identifier string              `json:"identifier"`
	Kind       string              `json:"kind"`
	Table      *dataframe.Document `json:"table"`
}

const (
	KindWeights  = "weights"
	KindBacktest = "backtest"
	KindSummary  = "summary"
)

func NewJSON(w io.Writer) *JSON {
	return &JSON{
		enc: json.NewEncoder(w),
	}
}

func (j *JSON) WriteWeights(ctx context.Context, identifier string, weights *dataframe.DataFrame[string]) error {
	return j.write(identifier, KindWeights, weights.Document(AssetIndex))
}

func (j *JSON) WriteBacktest(ctx context.Context, identifier string, returns *dataframe.DataFrame[time.Time]) error {
	return j.write(identifier, KindBacktest, returns.Document(DateIndex))
}

func (j *JSON) WriteSummary(ctx context.Context, identifier string, summary *dataframe.DataFrame[string]) error {
	return j.write(identifier, KindSummary, summary.Document(MetricIndex))
}

func (j *JSON) write(identifier, kind string, doc *dataframe.Document) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(&Record{
		Identifier: identifier,
		Kind:       kind,
		Table:      doc,
	})
}
