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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/penny-vault/pvopt/dataframe"
	"github.com/rs/zerolog/log"
)

// CSV writes `<id>_portfolios.csv`, `<id>_backtest.csv` and `<id>_summary.csv` into Dir
type CSV struct {
	Dir string
}

func NewCSV(dir string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error().Err(err).Str("Dir", dir).Msg("could not create output directory")
		return nil, err
	}
	return &CSV{Dir: dir}, nil
}

func (c *CSV) WriteWeights(ctx context.Context, identifier string, weights *dataframe.DataFrame[string]) error {
	return writeCSV(ctx, c.path(identifier, "portfolios"), AssetIndex, weights)
}

func (c *CSV) WriteBacktest(ctx context.Context, identifier string, returns *dataframe.DataFrame[time.Time]) error {
	return writeCSV(ctx, c.path(identifier, "backtest"), DateIndex, returns)
}

func (c *CSV) WriteSummary(ctx context.Context, identifier string, summary *dataframe.DataFrame[string]) error {
	return writeCSV(ctx, c.path(identifier, "summary"), MetricIndex, summary)
}

func (c *CSV) path(identifier, kind string) string {
	safe := strings.NewReplacer("/", "_", `\`, "_").Replace(identifier)
	return filepath.Join(c.Dir, fmt.Sprintf("%s_%s.csv", safe, kind))
}

type csvWriter interface {
	ToCSV(ctx context.Context, w io.Writer, indexName string) error
}

func writeCSV(ctx context.Context, fn, indexName string, df csvWriter) error {
	fh, err := os.Create(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not create output file")
		return err
	}

	if err := df.ToCSV(ctx, fh, indexName); err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not write csv")
		fh.Close()
		return err
	}

	log.Info().Str("FileName", fn).Msg("wrote results")
	return fh.Close()
}
