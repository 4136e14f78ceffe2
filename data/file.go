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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/penny-vault/pvopt/dataframe"
	"github.com/rs/zerolog/log"
)

// FileSource reads `<id>_<frequency>.csv` return tables and `<id>_caps.csv` market cap tables from Dir
type FileSource struct {
	Dir       string
	Frequency Frequency
}

func NewFileSource(dir string, frequency Frequency) *FileSource {
	return &FileSource{
		Dir:       dir,
		Frequency: frequency,
	}
}

func (f *FileSource) GetReturns(ctx context.Context, identifier string) (*dataframe.DataFrame[time.Time], error) {
	body, err := f.read(identifier, string(f.Frequency.suffix()))
	if err != nil {
		return nil, err
	}
	return ParseReturns(ctx, body)
}

func (f *FileSource) GetMarketCaps(ctx context.Context, identifier string) (*MarketCaps, error) {
	body, err := f.read(identifier, "caps")
	if err != nil {
		return nil, err
	}
	return ParseMarketCaps(ctx, body)
}

func (f *FileSource) read(identifier, suffix string) ([]byte, error) {
	if identifier == "" || strings.ContainsAny(identifier, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIdentifier, identifier)
	}

	fn := filepath.Join(f.Dir, fmt.Sprintf("%s_%s.csv", identifier, suffix))
	body, err := os.ReadFile(fn)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnknownIdentifier, identifier, fn)
	}
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("could not read data file")
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, err.Error())
	}
	return body, nil
}
