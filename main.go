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

package main

import (
	"strings"

	"github.com/penny-vault/pvopt/cmd"
	"github.com/spf13/viper"
)

func configureViper() {
	// config file is read once flags are parsed (see cmd.initConfig)
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath("/etc/pvopt/")
	viper.AddConfigPath("$HOME/.config/pvopt")
	viper.AddConfigPath(".")

	// PVOPT_SOLVER_MAX_ITERATIONS overrides solver.max_iterations
	viper.SetEnvPrefix("pvopt")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func main() {
	configureViper()
	cmd.Execute()
}
