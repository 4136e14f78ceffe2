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
	"errors"
	"time"

	"github.com/penny-vault/pvopt/dataframe"
)

var (
	ErrUnknownSink = errors.New("unknown result sink")
	ErrNotFound    = errors.New("result not found")
)

const (
	AssetIndex  = "asset"
	DateIndex   = "date"
	MetricIndex = "metric"
)

// PortfolioResultSink receives the weight tables and backtest series produced for an identifier
type PortfolioResultSink interface {
	WriteWeights(ctx context.Context, identifier string, weights *dataframe.DataFrame[string]) error
	WriteBacktest(ctx context.Context, identifier string, returns *dataframe.DataFrame[time.Time]) error
}

// SummarySink is implemented by sinks that can also record backtest summary metrics
type SummarySink interface {
	WriteSummary(ctx context.Context, identifier string, summary *dataframe.DataFrame[string]) error
}
