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
	"time"

	"github.com/penny-vault/pvopt/dataframe"
	"github.com/rs/zerolog/log"
)

// Multi fans results out to every sink. All sinks are written even if one fails; the first error is returned.
type Multi []PortfolioResultSink

func (m Multi) WriteWeights(ctx context.Context, identifier string, weights *dataframe.DataFrame[string]) error {
	return m.each(identifier, func(s PortfolioResultSink) error {
		return s.WriteWeights(ctx, identifier, weights)
	})
}

func (m Multi) WriteBacktest(ctx context.Context, identifier string, returns *dataframe.DataFrame[time.Time]) error {
	return m.each(identifier, func(s PortfolioResultSink) error {
		return s.WriteBacktest(ctx, identifier, returns)
	})
}

// WriteSummary forwards the summary to the sinks that implement SummarySink
func (m Multi) WriteSummary(ctx context.Context, identifier string, summary *dataframe.DataFrame[string]) error {
	return m.each(identifier, func(s PortfolioResultSink) error {
		if ss, ok := s.(SummarySink); ok {
			return ss.WriteSummary(ctx, identifier, summary)
		}
		return nil
	})
}

func (m Multi) each(identifier string, fn func(PortfolioResultSink) error) error {
	var first error
	for _, s := range m {
		if err := fn(s); err != nil {
			log.Error().Err(err).Str("Identifier", identifier).Msg("sink write failed")
			if first == nil {
				first = err
			}
		}
	}
	return first
}
