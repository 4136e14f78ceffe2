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

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/penny-vault/pvopt/backtest"
	"github.com/penny-vault/pvopt/covariance"
	"github.com/penny-vault/pvopt/data"
	"github.com/penny-vault/pvopt/dataframe"
	"github.com/penny-vault/pvopt/expected"
	"github.com/penny-vault/pvopt/portfolio"
	"github.com/penny-vault/pvopt/strategies"
	"github.com/rs/zerolog/log"
)

var (
	ErrMalformedRequest = errors.New("malformed request")
	ErrNoDataSource     = errors.New("no data source configured")
)

type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

var (
	badRequest = []error{
		ErrMalformedRequest,
		portfolio.ErrInvalidConfiguration,
		portfolio.ErrDimensionMismatch,
		portfolio.ErrInsufficientData,
		covariance.ErrInvalidConfiguration,
		covariance.ErrInsufficientData,
		expected.ErrInvalidConfiguration,
		expected.ErrInsufficientData,
		expected.ErrDimensionMismatch,
		strategies.ErrInvalidPlan,
		strategies.ErrEmptyPlan,
		strategies.ErrMissingMarketCaps,
		backtest.ErrInvalidConfiguration,
		backtest.ErrInsufficientData,
		dataframe.ErrNoColumns,
		dataframe.ErrEmptyColumnName,
		dataframe.ErrDuplicateColumn,
		dataframe.ErrColumnLength,
		dataframe.ErrContainsNaN,
		dataframe.ErrIndexNotIncreasing,
	}

	unprocessable = []error{
		portfolio.ErrOptimizationFailure,
		portfolio.ErrDegenerateCovariance,
		portfolio.ErrInvalidWeights,
		expected.ErrNonPositiveGrowth,
	}
)

// StatusFor maps an error to the HTTP status code returned to clients
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}

	switch {
	case errors.Is(err, data.ErrUnknownIdentifier):
		return fiber.StatusNotFound
	case errors.Is(err, data.ErrDataUnavailable):
		return fiber.StatusBadGateway
	case errors.Is(err, ErrNoDataSource):
		return fiber.StatusServiceUnavailable
	}

	for _, target := range badRequest {
		if errors.Is(err, target) {
			return fiber.StatusBadRequest
		}
	}

	for _, target := range unprocessable {
		if errors.Is(err, target) {
			return fiber.StatusUnprocessableEntity
		}
	}

	return fiber.StatusInternalServerError
}

// ErrorHandler writes every error returned by a handler as an ErrorResponse
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("Path", c.Path()).Int("StatusCode", status).Msg("request failed")
	}

	return c.Status(status).JSON(ErrorResponse{
		Status:  status,
		Message: err.Error(),
	})
}
