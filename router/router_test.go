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

package router_test

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pvopt/data"
	"github.com/penny-vault/pvopt/handler"
	"github.com/penny-vault/pvopt/portfolio"
	"github.com/penny-vault/pvopt/router"
	"github.com/penny-vault/pvopt/runner"
	"github.com/penny-vault/pvopt/strategies"
)

func post(app *fiber.App, path string, body interface{}) (*http.Response, []byte) {
	b, err := json.Marshal(body)
	Expect(err).To(BeNil())

	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(b))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	Expect(err).To(BeNil())

	respBody, err := io.ReadAll(resp.Body)
	Expect(err).To(BeNil())
	return resp, respBody
}

func get(app *fiber.App, path string) (*http.Response, []byte) {
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil), -1)
	Expect(err).To(BeNil())

	respBody, err := io.ReadAll(resp.Body)
	Expect(err).To(BeNil())
	return resp, respBody
}

var _ = Describe("Router", func() {
	var (
		app    *fiber.App
		h      *handler.Handler
		plan   *strategies.Plan
		solver *portfolio.Solver
	)

	BeforeEach(func() {
		var err error
		plan, err = strategies.DefaultPlan()
		Expect(err).To(BeNil())
		solver, err = portfolio.NewSolver(portfolio.DefaultSolverConfig())
		Expect(err).To(BeNil())

		h = handler.New(plan, solver, nil)
		h.Workers = 2
		app = router.NewApp(h)
	})

	It("answers ping", func() {
		resp, body := get(app, "/v1/")
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var ping handler.PingResponse
		Expect(json.Unmarshal(body, &ping)).To(Succeed())
		Expect(ping.Status).To(Equal("success"))
	})

	It("lists the known indices", func() {
		resp, body := get(app, "/v1/indices/")
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var indices []handler.IndexResponse
		Expect(json.Unmarshal(body, &indices)).To(Succeed())
		Expect(indices).To(ContainElement(handler.IndexResponse{Name: "SP500", Ticker: "^GSPC"}))
	})

	It("returns the active plan", func() {
		resp, body := get(app, "/v1/plan")
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var planResp handler.PlanResponse
		Expect(json.Unmarshal(body, &planResp)).To(Succeed())
		Expect(planResp.Recipes).To(Equal(plan.RecipeNames()))
		Expect(planResp.Recipes).To(HaveLen(14))
	})

	Describe("POST /v1/weights", func() {
		It("computes weights with a plan override", func() {
			resp, body := post(app, "/v1/weights", map[string]interface{}{
				"assets":  []string{"AAA", "BBB", "CCC"},
				"returns": syntheticRows(3, 24),
				"plan": map[string]interface{}{
					"portfolios":  []string{"EW", "GMV"},
					"covariances": []string{"Sample"},
				},
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK), string(body))

			var weights handler.WeightsResponse
			Expect(json.Unmarshal(body, &weights)).To(Succeed())
			Expect(weights.Weights.IndexName).To(Equal("asset"))
			Expect(weights.Weights.Index).To(Equal([]string{"AAA", "BBB", "CCC"}))
			Expect(weights.Weights.Columns).To(Equal([]string{"EW", "GMV_Sample"}))
			for _, w := range weights.Weights.Values[0] {
				Expect(w).To(BeNumerically("~", 1.0/3.0, 1e-12))
			}

			// the server plan is untouched
			Expect(plan.Portfolios).To(HaveLen(5))
		})

		It("computes cap weights from the request", func() {
			resp, body := post(app, "/v1/weights", map[string]interface{}{
				"assets":     []string{"AAA", "BBB"},
				"returns":    syntheticRows(2, 12),
				"marketCaps": []float64{3, 1},
				"plan":       map[string]interface{}{"portfolios": []string{"CW"}},
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK), string(body))

			var weights handler.WeightsResponse
			Expect(json.Unmarshal(body, &weights)).To(Succeed())
			Expect(weights.Weights.Values[0]).To(Equal([]float64{0.75, 0.25}))
		})

		DescribeTable("rejects bad requests",
			func(body interface{}, status int) {
				resp, respBody := post(app, "/v1/weights", body)
				Expect(resp.StatusCode).To(Equal(status), string(respBody))

				var errResp handler.ErrorResponse
				Expect(json.Unmarshal(respBody, &errResp)).To(Succeed())
				Expect(errResp.Status).To(Equal(status))
				Expect(errResp.Message).ToNot(BeEmpty())
			},
			Entry("ragged rows", map[string]interface{}{
				"assets":  []string{"AAA", "BBB"},
				"returns": [][]float64{{0.1, 0.2}, {0.1}},
			}, fiber.StatusBadRequest),
			Entry("no returns", map[string]interface{}{
				"assets": []string{"AAA"},
			}, fiber.StatusBadRequest),
			Entry("missing market caps", map[string]interface{}{
				"assets":  []string{"AAA", "BBB"},
				"returns": syntheticRows(2, 12),
			}, fiber.StatusBadRequest),
			Entry("unknown portfolio", map[string]interface{}{
				"assets":  []string{"AAA", "BBB"},
				"returns": syntheticRows(2, 12),
				"plan":    map[string]interface{}{"portfolios": []string{"YOLO"}},
			}, fiber.StatusBadRequest),
			Entry("dates out of order", map[string]interface{}{
				"assets":  []string{"AAA"},
				"dates":   []string{"2021-02-28", "2021-01-31"},
				"returns": [][]float64{{0.1}, {0.2}},
				"plan":    map[string]interface{}{"portfolios": []string{"EW"}},
			}, fiber.StatusBadRequest),
			Entry("wrong number of market caps", map[string]interface{}{
				"assets":     []string{"AAA", "BBB"},
				"returns":    syntheticRows(2, 12),
				"marketCaps": []float64{1},
				"plan":       map[string]interface{}{"portfolios": []string{"CW"}},
			}, fiber.StatusBadRequest),
		)

		It("rejects malformed JSON", func() {
			req := httptest.NewRequest(fiber.MethodPost, "/v1/weights", bytes.NewReader([]byte("{")))
			req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			resp, err := app.Test(req, -1)
			Expect(err).To(BeNil())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("POST /v1/backtest", func() {
		It("backtests the request series", func() {
			dates := make([]string, 15)
			for ii := range dates {
				dates[ii] = fmt.Sprintf("2020-%02d-01", ii%12+1)
				if ii >= 12 {
					dates[ii] = fmt.Sprintf("2021-%02d-01", ii%12+1)
				}
			}

			resp, body := post(app, "/v1/backtest", map[string]interface{}{
				"assets":  []string{"AAA", "BBB", "CCC"},
				"dates":   dates,
				"returns": syntheticRows(3, 15),
				"plan":    map[string]interface{}{"portfolios": []string{"EW"}},
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK), string(body))

			var bt handler.BacktestResponse
			Expect(json.Unmarshal(body, &bt)).To(Succeed())
			Expect(bt.Window).To(Equal(12))
			Expect(bt.Returns.Index).To(Equal([]string{"2021-01-01", "2021-02-01", "2021-03-01"}))
			Expect(bt.Returns.Columns).To(Equal([]string{"EW"}))
			Expect(bt.Summary.Index).To(HaveLen(5))
		})

		It("honors the requested window", func() {
			resp, body := post(app, "/v1/backtest", map[string]interface{}{
				"assets":  []string{"AAA", "BBB"},
				"returns": syntheticRows(2, 8),
				"window":  6,
				"plan":    map[string]interface{}{"portfolios": []string{"EW"}},
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK), string(body))

			var bt handler.BacktestResponse
			Expect(json.Unmarshal(body, &bt)).To(Succeed())
			Expect(bt.Returns.Index).To(Equal([]string{"1970-07-31", "1970-08-31"}))
		})

		DescribeTable("rejects windows outside the series",
			func(window int) {
				resp, _ := post(app, "/v1/backtest", map[string]interface{}{
					"assets":  []string{"AAA", "BBB"},
					"returns": syntheticRows(2, 8),
					"window":  window,
					"plan":    map[string]interface{}{"portfolios": []string{"EW"}},
				})
				Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			},
			Entry("negative", -1),
			Entry("as long as the series", 8),
			Entry("huge", 1000000000),
		)

		It("rejects series shorter than the window", func() {
			resp, _ := post(app, "/v1/backtest", map[string]interface{}{
				"assets":  []string{"AAA", "BBB"},
				"returns": syntheticRows(2, 12),
				"plan":    map[string]interface{}{"portfolios": []string{"EW"}},
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("POST /v1/frontier", func() {
		It("traces the efficient frontier", func() {
			resp, body := post(app, "/v1/frontier", map[string]interface{}{
				"assets":  []string{"AAA", "BBB", "CCC"},
				"returns": syntheticRows(3, 24),
				"points":  4,
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK), string(body))

			var frontier handler.FrontierResponse
			Expect(json.Unmarshal(body, &frontier)).To(Succeed())
			Expect(frontier.Returns).To(HaveLen(4))
			Expect(frontier.Volatilities).To(HaveLen(4))
			Expect(frontier.Weights.Index).To(Equal([]string{"AAA", "BBB", "CCC"}))
			Expect(frontier.Weights.Columns).To(Equal([]string{"P1", "P2", "P3", "P4"}))
		})

		It("caps the number of points", func() {
			resp, _ := post(app, "/v1/frontier", map[string]interface{}{
				"assets":  []string{"AAA", "BBB"},
				"returns": syntheticRows(2, 12),
				"points":  1000000000,
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("rejects a single point", func() {
			resp, _ := post(app, "/v1/frontier", map[string]interface{}{
				"assets":  []string{"AAA", "BBB"},
				"returns": syntheticRows(2, 12),
				"points":  1,
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("GET /v1/indices/:id/weights", func() {
		It("is unavailable without a data source", func() {
			resp, _ := get(app, "/v1/indices/TEST/weights")
			Expect(resp.StatusCode).To(Equal(fiber.StatusServiceUnavailable))
		})

		Context("with a data source", func() {
			BeforeEach(func() {
				files := data.NewFileSource("../testdata", data.Monthly)
				cwPlan, err := strategies.LoadPlan([]byte(`portfolios = ["EW", "CW"]`))
				Expect(err).To(BeNil())
				h.Runner = &runner.Runner{
					Returns: files,
					Caps:    files,
					Plan:    cwPlan,
					Solver:  solver,
				}
			})

			It("computes the weights of the index", func() {
				resp, body := get(app, "/v1/indices/TEST/weights")
				Expect(resp.StatusCode).To(Equal(fiber.StatusOK), string(body))

				var weights handler.WeightsResponse
				Expect(json.Unmarshal(body, &weights)).To(Succeed())
				Expect(weights.Identifier).To(Equal("TEST"))
				Expect(weights.Weights.Columns).To(Equal([]string{"EW", "CW"}))
				Expect(weights.Weights.Values[1][0]).To(BeNumerically("~", 0.5, 1e-12))
			})

			It("returns not found for unknown indices", func() {
				resp, _ := get(app, "/v1/indices/NOPE/weights")
				Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
			})
		})
	})
})
