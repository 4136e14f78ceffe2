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

package portfolio_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pvopt/covariance"
	"github.com/penny-vault/pvopt/dataframe"
	"github.com/penny-vault/pvopt/expected"
	"github.com/penny-vault/pvopt/portfolio"
	"gonum.org/v1/gonum/optimize"
)

var _ = Describe("Solver", func() {
	var (
		solver *portfolio.Solver
	)

	BeforeEach(func() {
		var err error
		solver, err = portfolio.NewSolver(portfolio.DefaultSolverConfig())
		Expect(err).To(BeNil())
	})

	Describe("MSR", func() {
		It("matches the closed form tangency portfolio for uncorrelated assets", func() {
			cov := covMatrix([]string{"A", "B"}, 0.04, 0, 0, 0.09)
			w, err := solver.MSR(cov, []float64{0.10, 0.12}, 0.03)
			Expect(err).To(BeNil())
			Expect(w.Assets).To(Equal([]string{"A", "B"}))
			Expect(w.Values[0]).To(BeNumerically("~", 0.636364, 1e-4))
			Expect(w.Values[1]).To(BeNumerically("~", 0.363636, 1e-4))
			Expect(w.Validate()).To(Succeed())
		})

		It("is deterministic", func() {
			cov := syntheticCovariance(4, 36)
			er := []float64{0.08, 0.10, 0.12, 0.09}
			w1, err := solver.MSR(cov, er, 0.03)
			Expect(err).To(BeNil())
			w2, err := solver.MSR(cov, er, 0.03)
			Expect(err).To(BeNil())
			Expect(w1.Values).To(Equal(w2.Values))
		})

		It("requires one expected return per asset", func() {
			cov := covMatrix([]string{"A", "B"}, 0.04, 0, 0, 0.09)
			_, err := solver.MSR(cov, []float64{0.1, 0.1, 0.1}, 0.03)
			Expect(err).To(MatchError(portfolio.ErrDimensionMismatch))
		})

		It("reports the last iterate when the iteration limit is hit", func() {
			cfg := portfolio.DefaultSolverConfig()
			cfg.MaxIterations = 1
			limited, err := portfolio.NewSolver(cfg)
			Expect(err).To(BeNil())

			cov := syntheticCovariance(4, 36)
			_, err = limited.MSR(cov, []float64{0.08, 0.10, 0.12, 0.09}, 0.03)
			Expect(err).To(MatchError(portfolio.ErrOptimizationFailure))

			var optErr *portfolio.OptimizationError
			Expect(errors.As(err, &optErr)).To(BeTrue())
			Expect(optErr.Variant).To(Equal(portfolio.MSR))
			Expect(optErr.Status).ToNot(Equal(optimize.Success))
			Expect(optErr.Last.Len()).To(Equal(4))
			Expect(optErr.Last.Sum()).To(BeNumerically("~", 1.0, 1e-9))
		})

		It("fails instead of returning a portfolio with no variance", func() {
			cov := covMatrix([]string{"A", "B"}, 0, 0, 0, 0)
			_, err := solver.MSR(cov, []float64{0.10, 0.12}, 0.03)
			Expect(err).To(MatchError(portfolio.ErrOptimizationFailure))
		})

		It("steers candidates without positive variance toward positive variance", func() {
			cov := covMatrix([]string{"A", "B"}, 0.01, -0.05, -0.05, 0.01)
			obj := portfolio.NegativeSharpe(cov, []float64{1, 1}, 0)

			grad := make([]float64, 2)
			near := obj([]float64{0.6, 0.4}, grad)
			far := obj([]float64{0.5, 0.5}, nil)
			Expect(near).To(BeNumerically("<", far))

			// moving weight from B to A raises the variance so the directional derivative is negative
			Expect(grad[0] - grad[1]).To(BeNumerically("<", 0.0))
		})

		It("never returns weights without positive variance for an indefinite matrix", func() {
			cov := covMatrix([]string{"A", "B"}, 0.01, -0.05, -0.05, 0.01)
			w, err := solver.GMV(cov)
			if err != nil {
				Expect(err).To(MatchError(portfolio.ErrOptimizationFailure))
				return
			}
			Expect(w.Validate()).To(Succeed())
			Expect(portfolio.Variance(w.Values, cov)).To(BeNumerically(">", 0.0))
		})
	})

	Describe("GMV", func() {
		It("matches the closed form minimum variance portfolio", func() {
			cov := covMatrix([]string{"A", "B"}, 0.04, 0, 0, 0.09)
			w, err := solver.GMV(cov)
			Expect(err).To(BeNil())
			Expect(w.Values[0]).To(BeNumerically("~", 0.692308, 1e-4))
			Expect(w.Values[1]).To(BeNumerically("~", 0.307692, 1e-4))
		})

		It("accounts for correlation", func() {
			cov := covMatrix([]string{"A", "B"}, 0.04, 0.006, 0.006, 0.09)
			w, err := solver.GMV(cov)
			Expect(err).To(BeNil())
			Expect(w.Values[0]).To(BeNumerically("~", 0.711864, 1e-4))
			Expect(w.Values[1]).To(BeNumerically("~", 0.288136, 1e-4))
		})

		It("equals MSR with unit expected returns and no risk free rate", func() {
			cov := syntheticCovariance(5, 36)
			gmv, err := solver.GMV(cov)
			Expect(err).To(BeNil())
			msr, err := solver.MSR(cov, []float64{1, 1, 1, 1, 1}, 0)
			Expect(err).To(BeNil())
			Expect(gmv.Values).To(Equal(msr.Values))
		})

		It("has no more volatility than any other long-only portfolio tried", func() {
			cov := syntheticCovariance(5, 36)
			gmv, err := solver.GMV(cov)
			Expect(err).To(BeNil())
			gmvVol := portfolio.Volatility(gmv.Values, cov)
			for _, w := range [][]float64{
				{0.2, 0.2, 0.2, 0.2, 0.2},
				{1, 0, 0, 0, 0},
				{0, 0, 0, 0, 1},
				{0.4, 0.3, 0.2, 0.1, 0.0},
			} {
				Expect(gmvVol).To(BeNumerically("<=", portfolio.Volatility(w, cov)+1e-9))
			}
		})
	})

	DescribeTable("rank deficient sample covariance (more assets than periods)",
		func(seed int64) {
			cov := rankDeficientCovariance(seed, 30, 12)

			gmv, err := solver.GMV(cov)
			Expect(err).To(BeNil())
			Expect(gmv.Validate()).To(Succeed())
			Expect(gmv.Sum()).To(BeNumerically("~", 1.0, 1e-9))

			ew := make([]float64, 30)
			for ii := range ew {
				ew[ii] = 1.0 / 30.0
			}
			Expect(portfolio.Volatility(gmv.Values, cov)).To(BeNumerically("<=", portfolio.Volatility(ew, cov)))

			er := make([]float64, 30)
			for ii := range er {
				er[ii] = 0.05 + 0.003*float64(ii)
			}
			msr, err := solver.MSR(cov, er, 0.03)
			Expect(err).To(BeNil())
			Expect(msr.Validate()).To(Succeed())
		},
		Entry("seed 1", int64(1)),
		Entry("seed 2", int64(2)),
		Entry("seed 3", int64(3)),
		Entry("seed 4", int64(4)),
		Entry("seed 5", int64(5)),
	)

	Describe("ERC", func() {
		It("equals equal weight for uncorrelated assets with equal variance", func() {
			cov := covMatrix([]string{"A", "B", "C"}, 0.04, 0, 0, 0, 0.04, 0, 0, 0, 0.04)
			w, err := solver.ERC(cov)
			Expect(err).To(BeNil())
			for _, v := range w.Values {
				Expect(v).To(BeNumerically("~", 1.0/3, 1e-6))
			}
		})

		It("weights uncorrelated assets by inverse volatility", func() {
			cov := covMatrix([]string{"A", "B", "C"}, 0.04, 0, 0, 0, 0.09, 0, 0, 0, 0.16)
			w, err := solver.ERC(cov)
			Expect(err).To(BeNil())
			Expect(w.Values[0]).To(BeNumerically("~", 0.461538, 1e-4))
			Expect(w.Values[1]).To(BeNumerically("~", 0.307692, 1e-4))
			Expect(w.Values[2]).To(BeNumerically("~", 0.230769, 1e-4))
		})

		It("equalizes risk contributions", func() {
			cov := syntheticCovariance(5, 36)
			w, err := solver.ERC(cov)
			Expect(err).To(BeNil())
			for _, rc := range portfolio.RiskContribution(w.Values, cov) {
				Expect(rc).To(BeNumerically("~", 0.2, 1e-3))
			}
		})
	})

	Context("with a single asset", func() {
		var cov *covariance.Matrix

		BeforeEach(func() {
			cov = covMatrix([]string{"A"}, 0.04)
		})

		It("returns a weight of 1 for every variant", func() {
			msr, err := solver.MSR(cov, []float64{0.1}, 0.03)
			Expect(err).To(BeNil())
			gmv, err := solver.GMV(cov)
			Expect(err).To(BeNil())
			erc, err := solver.ERC(cov)
			Expect(err).To(BeNil())
			ew, err := portfolio.EqualWeight(cov.Assets)
			Expect(err).To(BeNil())
			cw, err := portfolio.CapWeight(cov.Assets, []float64{123})
			Expect(err).To(BeNil())

			for _, w := range []*portfolio.Weights{msr, gmv, erc, ew, cw} {
				Expect(w.Values).To(Equal([]float64{1.0}))
			}
		})
	})

	Describe("Solve", func() {
		var (
			cov *covariance.Matrix
			er  *expected.Vector
		)

		BeforeEach(func() {
			cov = syntheticCovariance(4, 36)
			er = &expected.Vector{Assets: cov.Assets, Values: []float64{0.08, 0.10, 0.12, 0.09}}
		})

		It("produces valid weights for every variant", func() {
			for _, variant := range portfolio.Variants() {
				w, err := solver.Solve(context.Background(), portfolio.Request{
					Variant:    variant,
					Covariance: cov,
					Expected:   er,
					Caps:       []float64{10, 20, 30, 40},
					RiskFree:   portfolio.DefaultRiskFreeRate,
				})
				Expect(err).To(BeNil(), string(variant))
				Expect(w.Validate()).To(Succeed(), string(variant))
				Expect(w.Assets).To(Equal(cov.Assets))
			}
		})

		It("requires expected returns for MSR", func() {
			_, err := solver.Solve(context.Background(), portfolio.Request{Variant: portfolio.MSR, Covariance: cov})
			Expect(err).To(MatchError(portfolio.ErrInvalidConfiguration))
		})

		It("rejects unknown variants", func() {
			_, err := solver.Solve(context.Background(), portfolio.Request{Variant: "HRP", Covariance: cov})
			Expect(err).To(MatchError(portfolio.ErrUnknownVariant))
		})

		It("honors cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := solver.Solve(ctx, portfolio.Request{Variant: portfolio.EW, Covariance: cov})
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})

var _ = Describe("SolverConfig", func() {
	It("has valid defaults", func() {
		Expect(portfolio.DefaultSolverConfig().Validate()).To(Succeed())
	})

	DescribeTable("rejects invalid settings", func(mutate func(*portfolio.SolverConfig)) {
		cfg := portfolio.DefaultSolverConfig()
		mutate(&cfg)
		_, err := portfolio.NewSolver(cfg)
		Expect(err).To(MatchError(portfolio.ErrInvalidConfiguration))
	},
		Entry("zero iterations", func(c *portfolio.SolverConfig) { c.MaxIterations = 0 }),
		Entry("negative tolerance", func(c *portfolio.SolverConfig) { c.Tolerance = -1 }),
		Entry("unknown method", func(c *portfolio.SolverConfig) { c.Method = "slsqp" }),
	)

	It("accepts every method", func() {
		cov := covMatrix([]string{"A", "B"}, 0.04, 0, 0, 0.09)
		for _, method := range []string{portfolio.MethodBFGS, portfolio.MethodLBFGS, portfolio.MethodNelderMead} {
			cfg := portfolio.DefaultSolverConfig()
			cfg.Method = method
			s, err := portfolio.NewSolver(cfg)
			Expect(err).To(BeNil())
			w, err := s.GMV(cov)
			Expect(err).To(BeNil(), method)
			Expect(w.Values[0]).To(BeNumerically("~", 0.692308, 1e-3), method)
		}
	})
})

var _ = Describe("Variant", func() {
	It("parses names case-insensitively", func() {
		v, err := portfolio.ParseVariant("erc")
		Expect(err).To(BeNil())
		Expect(v).To(Equal(portfolio.ERC))
	})

	It("reports its inputs", func() {
		Expect(portfolio.MSR.NeedsExpectedReturns()).To(BeTrue())
		Expect(portfolio.GMV.NeedsExpectedReturns()).To(BeFalse())
		Expect(portfolio.CW.NeedsCaps()).To(BeTrue())
		Expect(portfolio.EW.NeedsCovariance()).To(BeFalse())
	})
})

// rankDeficientCovariance is the sample covariance of nPeriods random monthly returns of nAssets assets
func rankDeficientCovariance(seed int64, nAssets, nPeriods int) *covariance.Matrix {
	rnd := rand.New(rand.NewSource(seed))
	df := &dataframe.DataFrame[time.Time]{
		Index:    make([]time.Time, nPeriods),
		ColNames: make([]string, nAssets),
		Vals:     make([][]float64, nAssets),
	}

	for ii := range df.Index {
		df.Index[ii] = time.Date(2020, time.January, 31, 0, 0, 0, 0, time.UTC).AddDate(0, ii, 0)
	}

	for aa := range df.ColNames {
		df.ColNames[aa] = fmt.Sprintf("S%02d", aa)
		df.Vals[aa] = make([]float64, nPeriods)
		for ii := range df.Vals[aa] {
			df.Vals[aa][ii] = 0.01 + 0.06*rnd.NormFloat64()
		}
	}

	cov, err := covariance.Sample(df)
	Expect(err).To(BeNil())
	return cov
}
