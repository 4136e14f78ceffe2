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
	"sort"
	"sync"
	"time"

	"github.com/penny-vault/pvopt/dataframe"
)

// Memory keeps the most recent results of every identifier; it is safe for concurrent use
type Memory struct {
	mu        sync.RWMutex
	weights   map[string]*dataframe.DataFrame[string]
	backtests map[string]*dataframe.DataFrame[time.Time]
	summaries map[string]*dataframe.DataFrame[string]
}

func NewMemory() *Memory {
	return &Memory{
		weights:   make(map[string]*dataframe.DataFrame[string]),
		backtests: make(map[string]*dataframe.DataFrame[time.Time]),
		summaries: make(map[string]*dataframe.DataFrame[string]),
	}
}

func (m *Memory) WriteWeights(ctx context.Context, identifier string, weights *dataframe.DataFrame[string]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weights[identifier] = weights.Copy()
	return nil
}

func (m *Memory) WriteBacktest(ctx context.Context, identifier string, returns *dataframe.DataFrame[time.Time]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backtests[identifier] = returns.Copy()
	return nil
}

func (m *Memory) WriteSummary(ctx context.Context, identifier string, summary *dataframe.DataFrame[string]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[identifier] = summary.Copy()
	return nil
}

// Weights returns the last weight table written for identifier
func (m *Memory) Weights(identifier string) (*dataframe.DataFrame[string], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if df, ok := m.weights[identifier]; ok {
		return df, nil
	}
	return nil, fmt.Errorf("%w: weights for %s", ErrNotFound, identifier)
}

// Backtest returns the last backtest series written for identifier
func (m *Memory) Backtest(identifier string) (*dataframe.DataFrame[time.Time], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if df, ok := m.backtests[identifier]; ok {
		return df, nil
	}
	return nil, fmt.Errorf("%w: backtest for %s", ErrNotFound, identifier)
}

// Summary returns the last summary written for identifier
func (m *Memory) Summary(identifier string) (*dataframe.DataFrame[string], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if df, ok := m.summaries[identifier]; ok {
		return df, nil
	}
	return nil, fmt.Errorf("%w: summary for %s", ErrNotFound, identifier)
}

// Identifiers lists every identifier with a weight table in alphabetical order
func (m *Memory) Identifiers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.weights))
	for k := range m.weights {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	return ids
}
