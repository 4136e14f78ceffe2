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

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/penny-vault/pvopt/data"
	"github.com/penny-vault/pvopt/data/database"
	"github.com/penny-vault/pvopt/handler"
	"github.com/penny-vault/pvopt/router"
	"github.com/penny-vault/pvopt/runner"
	"github.com/penny-vault/pvopt/schedule"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	viper.BindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	serveCmd.Flags().String("cors-origins", "*", "Comma separated list of origins allowed to call the API")
	viper.BindPFlag("server.cors_origins", serveCmd.Flags().Lookup("cors-origins"))

	serveCmd.Flags().String("refresh", "", "Schedule for recomputing index weights (e.g., @monthend); disabled when blank")
	viper.BindPFlag("server.refresh", serveCmd.Flags().Lookup("refresh"))

	serveCmd.Flags().StringSlice("refresh-indices", []string{}, "Indices recomputed on the refresh schedule (default is every known index)")
	viper.BindPFlag("server.refresh_indices", serveCmd.Flags().Lookup("refresh-indices"))

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pvopt server",
	Long:  `Run HTTP server that implements the pvopt API`,
	Run: func(cmd *cobra.Command, args []string) {
		defer setupTracing()()

		ctx := context.Background()

		plan, err := loadPlan()
		if err != nil {
			log.Fatal().Err(err).Msg("could not load plan")
		}

		solver, err := newSolver()
		if err != nil {
			log.Fatal().Err(err).Msg("could not configure solver")
		}

		// index endpoints are only served when a data source is available
		var indexRunner *runner.Runner
		src, err := newSource(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("no data source available; index endpoints are disabled")
		} else {
			indexRunner = &runner.Runner{
				Returns: src,
				Caps:    src,
				Plan:    plan,
				Solver:  solver,
			}
		}

		h := handler.New(plan, solver, indexRunner)
		h.Workers = viper.GetInt("run.workers")

		app := router.NewApp(h, cors.New(cors.Config{
			AllowOrigins: viper.GetString("server.cors_origins"),
			AllowHeaders: "*",
			AllowMethods: "GET,POST,HEAD",
		}))

		if spec := viper.GetString("server.refresh"); spec != "" && indexRunner != nil {
			scheduler, err := startRefresh(ctx, spec, indexRunner)
			if err != nil {
				log.Fatal().Err(err).Str("Schedule", spec).Msg("could not schedule index refresh")
			}
			defer scheduler.Stop()
		}

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c // block until signal is read
			fmt.Printf("Received signal: '%s'; shutting down...\n", sig.String())
			if err := app.Shutdown(); err != nil {
				log.Error().Err(err).Msg("error shutting down server")
			}
		}()

		if err := app.Listen(fmt.Sprintf(":%d", viper.GetInt("server.port"))); err != nil {
			log.Error().Err(err).Msg("server stopped")
		}

		if database.Configured() {
			database.LogOpenTransactions()
		}
	},
}

// startRefresh recomputes the configured indices on the refresh schedule and writes them to the configured sink
func startRefresh(ctx context.Context, spec string, indexRunner *runner.Runner) (*gocron.Scheduler, error) {
	sched, err := schedule.New(spec, time.UTC)
	if err != nil {
		return nil, err
	}

	out, err := newSink(ctx)
	if err != nil {
		return nil, err
	}

	refresh := *indexRunner
	refresh.Sink = out

	indices := viper.GetStringSlice("server.refresh_indices")
	if len(indices) == 0 {
		indices = data.IndexNames()
	}

	scheduler := gocron.NewScheduler(time.UTC)
	_, err = scheduler.Cron(sched.TimeSpec).Do(func() {
		if !sched.Matches(time.Now()) {
			return
		}

		report, err := refresh.Run(ctx, indices, runner.Skip)
		if err != nil {
			log.Error().Err(err).Msg("index refresh failed")
			return
		}
		log.Info().Strs("Succeeded", report.Succeeded).Int("Failed", len(report.Failures)).Dur("Elapsed", report.Elapsed).Msg("refreshed index weights")
	})
	if err != nil {
		return nil, err
	}

	scheduler.StartAsync()

	if next, err := sched.Next(time.Now()); err == nil {
		log.Info().Str("Schedule", spec).Time("NextRefresh", next).Msg("scheduled index refresh")
	}

	return scheduler, nil
}
