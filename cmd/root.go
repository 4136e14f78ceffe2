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
	"errors"
	"fmt"
	"os"

	"github.com/penny-vault/pvopt/common"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/pvopt/config.toml)")

	// Logging configuration
	viper.BindEnv("log.level", "PVOPT_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.report_caller", "PVOPT_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	viper.BindEnv("log.output", "PVOPT_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stderr", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	rootCmd.PersistentFlags().Bool("log-pretty", true, "Format logs for humans instead of as JSON")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	// Data source
	rootCmd.PersistentFlags().String("source", "http", "Where to read returns and market caps from: file, http, or db")
	viper.BindPFlag("data.source", rootCmd.PersistentFlags().Lookup("source"))

	rootCmd.PersistentFlags().String("data-dir", ".", "Directory holding <index>_<frequency>.csv and <index>_caps.csv files")
	viper.BindPFlag("data.dir", rootCmd.PersistentFlags().Lookup("data-dir"))

	rootCmd.PersistentFlags().String("frequency", "m", "Return frequency, one of: m (monthly) or d (daily)")
	viper.BindPFlag("data.frequency", rootCmd.PersistentFlags().Lookup("frequency"))

	// Database
	viper.BindEnv("database.url", "DATABASE_URL")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url"))

	rootCmd.PersistentFlags().String("database-role", "", "Role to assume in every database transaction")
	viper.BindPFlag("database.role", rootCmd.PersistentFlags().Lookup("database-role"))

	// Output
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Where to write results: table, csv, json, or db")
	viper.BindPFlag("sink.kind", rootCmd.PersistentFlags().Lookup("output"))

	rootCmd.PersistentFlags().String("output-dir", ".", "Directory CSV results are written to")
	viper.BindPFlag("sink.dir", rootCmd.PersistentFlags().Lookup("output-dir"))

	// Computation
	rootCmd.PersistentFlags().String("plan", "", "TOML plan file (default is the bundled plan)")
	viper.BindPFlag("plan.file", rootCmd.PersistentFlags().Lookup("plan"))

	rootCmd.PersistentFlags().String("on-error", "skip", "What to do when an index fails: skip or abort")
	viper.BindPFlag("run.on_error", rootCmd.PersistentFlags().Lookup("on-error"))

	rootCmd.PersistentFlags().Int("workers", 0, "Number of estimation windows solved concurrently (default is the number of CPUs)")
	viper.BindPFlag("run.workers", rootCmd.PersistentFlags().Lookup("workers"))

	// Cache
	rootCmd.PersistentFlags().Bool("cache", false, "Cache downloaded returns and market caps")
	viper.BindPFlag("cache.enabled", rootCmd.PersistentFlags().Lookup("cache"))

	rootCmd.PersistentFlags().Int("cache-local-size", 128, "Number of entries kept in the in-process cache")
	viper.BindPFlag("cache.local_size", rootCmd.PersistentFlags().Lookup("cache-local-size"))

	rootCmd.PersistentFlags().Int("cache-ttl", 86400, "Seconds a cached entry stays valid")
	viper.BindPFlag("cache.ttl", rootCmd.PersistentFlags().Lookup("cache-ttl"))

	viper.BindEnv("cache.redis_url", "REDIS_URL")
	rootCmd.PersistentFlags().String("cache-redis-url", "", "Redis server shared by pvopt instances")
	viper.BindPFlag("cache.redis_url", rootCmd.PersistentFlags().Lookup("cache-redis-url"))

	rootCmd.PersistentFlags().Bool("cache-redis", false, "Use redis as a second level cache")
	viper.BindPFlag("cache.redis", rootCmd.PersistentFlags().Lookup("cache-redis"))

	// Tracing
	viper.BindEnv("otlp.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	rootCmd.PersistentFlags().String("otlp-endpoint", "", "OpenTelemetry collector; tracing is disabled when blank")
	viper.BindPFlag("otlp.endpoint", rootCmd.PersistentFlags().Lookup("otlp-endpoint"))

	rootCmd.PersistentFlags().Bool("otlp-http", false, "Export traces over HTTP instead of gRPC")
	viper.BindPFlag("otlp.http", rootCmd.PersistentFlags().Lookup("otlp-http"))
}

// initConfig reads the config file; a missing file is not an error
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		fmt.Fprintf(os.Stderr, "could not read config file: %s\n", err)
		os.Exit(1)
	}

	common.SetupLogging()

	if err == nil {
		log.Debug().Str("ConfigFile", viper.ConfigFileUsed()).Msg("loaded config file")
	}
}

var rootCmd = &cobra.Command{
	Use:     "pvopt",
	Version: common.CurrentVersion.String(),
	Short:   "pvopt builds optimized portfolios of index constituents",
	Long: `pvopt estimates covariance matrices and expected returns of the constituents of stock indices and
solves for maximum Sharpe ratio, global minimum variance, equal risk contribution, equal weight and cap
weight portfolios. Allocations can be backtested over rolling estimation windows.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
