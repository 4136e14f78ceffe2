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
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/penny-vault/pvopt/backtest"
	"github.com/penny-vault/pvopt/dataframe"
	"github.com/penny-vault/pvopt/sink"
	"github.com/penny-vault/pvopt/strategies"
	"github.com/rs/zerolog/log"
)

type PlanResponse struct {
	Plan    *strategies.Plan `json:"plan"`
	Recipes []string         `json:"recipes"`
}

type WeightsResponse struct {
	Identifier string              `json:"identifier,omitempty"`
	Weights    *dataframe.Document `json:"weights"`
}

type BacktestResponse struct {
	ID      uuid.UUID           `json:"id"`
	Window  int                 `json:"window"`
	Returns *dataframe.Document `json:"returns"`
	Summary *dataframe.Document `json:"summary"`
}

// FrontierResponse lists the efficient frontier from the lowest to the highest target return. Weights has one
// column per point.
type FrontierResponse struct {
	Returns      []float64           `json:"returns"`
	Volatilities []float64           `json:"volatilities"`
	Weights      *dataframe.Document `json:"weights"`
}

const defaultFrontierPoints = 20

// GetPlan returns the plan used when a request does not override it
func (h *Handler) GetPlan(c *fiber.Ctx) error {
	return c.JSON(PlanResponse{
		Plan:    h.Plan,
		Recipes: h.Plan.RecipeNames(),
	})
}

// Weights computes the weight table of the return series in the request body
func (h *Handler) Weights(c *fiber.Ctx) error {
	req := PortfolioRequest{}
	if err := c.BodyParser(&req); err != nil {
		log.Warn().Err(err).Str("Uri", "/v1/weights").Msg("could not parse request body")
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	returns, err := req.frame()
	if err != nil {
		return err
	}

	plan, err := req.plan(h.Plan)
	if err != nil {
		return err
	}

	weights, err := plan.Compute(c.UserContext(), h.Solver, returns, req.caps())
	if err != nil {
		return err
	}

	return c.JSON(WeightsResponse{
		Weights: weights.Document(sink.AssetIndex),
	})
}

// Backtest runs the rolling backtest of the return series in the request body
func (h *Handler) Backtest(c *fiber.Ctx) error {
	req := PortfolioRequest{}
	if err := c.BodyParser(&req); err != nil {
		log.Warn().Err(err).Str("Uri", "/v1/backtest").Msg("could not parse request body")
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	returns, err := req.frame()
	if err != nil {
		return err
	}

	plan, err := req.plan(h.Plan)
	if err != nil {
		return err
	}

	driver := backtest.NewDriver(plan, h.Solver)
	if req.Window != 0 {
		driver.WindowSize = req.Window
	}
	if h.Workers > 0 {
		driver.Workers = h.Workers
	}

	result, err := driver.Run(c.UserContext(), returns, req.caps())
	if err != nil {
		return err
	}

	summary := backtest.Summarize(result.Returns, plan.PeriodsPerYear, plan.RiskFreeRate)

	return c.JSON(BacktestResponse{
		ID:      result.ID,
		Window:  driver.WindowSize,
		Returns: result.Returns.Document(sink.DateIndex),
		Summary: summary.Document(sink.MetricIndex),
	})
}

// Frontier traces the efficient frontier of the return series in the request body
func (h *Handler) Frontier(c *fiber.Ctx) error {
	req := PortfolioRequest{}
	if err := c.BodyParser(&req); err != nil {
		log.Warn().Err(err).Str("Uri", "/v1/frontier").Msg("could not parse request body")
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	returns, err := req.frame()
	if err != nil {
		return err
	}

	plan, err := req.plan(h.Plan)
	if err != nil {
		return err
	}

	points := req.Points
	if points == 0 {
		points = defaultFrontierPoints
	}

	frontier, err := plan.Frontier(c.UserContext(), h.Solver, returns, req.caps(), points)
	if err != nil {
		return err
	}

	resp := FrontierResponse{
		Returns:      make([]float64, len(frontier)),
		Volatilities: make([]float64, len(frontier)),
	}

	weights := &dataframe.DataFrame[string]{Index: returns.ColNames}
	for ii, point := range frontier {
		resp.Returns[ii] = point.Return
		resp.Volatilities[ii] = point.Volatility
		weights.Insert(fmt.Sprintf("P%d", ii+1), point.Weights.Values)
	}
	resp.Weights = weights.Document(sink.AssetIndex)

	return c.JSON(resp)
}

// IndexWeights computes the weight table of an index from the configured data source
func (h *Handler) IndexWeights(c *fiber.Ctx) error {
	if h.Runner == nil {
		return ErrNoDataSource
	}

	identifier := c.Params("id")
	outcome, err := h.Runner.Process(c.UserContext(), identifier)
	if err != nil {
		return err
	}

	return c.JSON(WeightsResponse{
		Identifier: identifier,
		Weights:    outcome.Weights.Document(sink.AssetIndex),
	})
}
