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
	"io"
	"sync"
	"time"

	"github.com/penny-vault/pvopt/dataframe"
)

// Table renders results as ASCII tables
type Table struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTable(w io.Writer) *Table {
	return &Table{w: w}
}

func (t *Table) WriteWeights(ctx context.Context, identifier string, weights *dataframe.DataFrame[string]) error {
	return t.write(identifier, KindWeights, weights.Table())
}

func (t *Table) WriteBacktest(ctx context.Context, identifier string, returns *dataframe.DataFrame[time.Time]) error {
	return t.write(identifier, KindBacktest, returns.Table())
}

func (t *Table) WriteSummary(ctx context.Context, identifier string, summary *dataframe.DataFrame[string]) error {
	return t.write(identifier, KindSummary, summary.Table())
}

func (t *Table) write(identifier, kind, table string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.w, "%s (%s)\n\n%s\n", identifier, kind, table)
	return err
}
