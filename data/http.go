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
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/penny-vault/pvopt/dataframe"
	"github.com/penny-vault/pvopt/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultReturnsURL = "https://github.com/Bashlykov-Nikita/Companies-Returns/blob/main/{name}_{frequency}.csv?raw=true"
	DefaultCapsURL    = "https://github.com/Bashlykov-Nikita/Companies-Returns/blob/main/{name}_caps.csv?raw=true"
)

// HTTPSource downloads CSV tables. ReturnsURL and CapsURL are templates; `{name}` is replaced with the
// identifier and `{frequency}` with the frequency suffix.
type HTTPSource struct {
	ReturnsURL string
	CapsURL    string
	Frequency  Frequency
	Client     *http.Client
}

func NewHTTPSource(returnsURL, capsURL string, frequency Frequency) *HTTPSource {
	if returnsURL == "" {
		returnsURL = DefaultReturnsURL
	}
	if capsURL == "" {
		capsURL = DefaultCapsURL
	}
	return &HTTPSource{
		ReturnsURL: returnsURL,
		CapsURL:    capsURL,
		Frequency:  frequency,
		Client:     http.DefaultClient,
	}
}

func (h *HTTPSource) GetReturns(ctx context.Context, identifier string) (*dataframe.DataFrame[time.Time], error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "http.GetReturns")
	defer span.End()

	body, err := h.download(ctx, h.ReturnsURL, identifier)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "download failed")
		return nil, err
	}

	df, err := ParseReturns(ctx, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not parse returns")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("Periods", df.Len()),
		attribute.Int("Assets", df.ColCount()),
	)
	return df, nil
}

func (h *HTTPSource) GetMarketCaps(ctx context.Context, identifier string) (*MarketCaps, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "http.GetMarketCaps")
	defer span.End()

	body, err := h.download(ctx, h.CapsURL, identifier)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "download failed")
		return nil, err
	}

	mc, err := ParseMarketCaps(ctx, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not parse market caps")
		return nil, err
	}
	return mc, nil
}

func (h *HTTPSource) url(tmpl, identifier string) string {
	return strings.NewReplacer(
		"{name}", url.PathEscape(identifier),
		"{frequency}", string(h.Frequency.suffix()),
	).Replace(tmpl)
}

func (h *HTTPSource) download(ctx context.Context, tmpl, identifier string) ([]byte, error) {
	span := trace.SpanFromContext(ctx)
	if identifier == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrUnknownIdentifier)
	}

	u := h.url(tmpl, identifier)
	span.SetAttributes(
		attribute.String("Url", u),
		attribute.String("Identifier", identifier),
	)

	subLog := log.With().Str("Url", u).Str("Identifier", identifier).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		subLog.Error().Err(err).Msg("could not build request")
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, err.Error())
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		subLog.Error().Err(err).Msg("http request failed")
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, err.Error())
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("StatusCode", resp.StatusCode))

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIdentifier, identifier)
	}

	if resp.StatusCode >= 400 {
		subLog.Error().Int("HTTPResponseStatusCode", resp.StatusCode).Msg("server returned invalid response code")
		return nil, fmt.Errorf("%w: HTTP request returned invalid status code: %d", ErrDataUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		subLog.Error().Err(err).Msg("could not read body")
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, err.Error())
	}

	return body, nil
}
