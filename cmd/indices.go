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
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/pvopt/data"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(indicesCmd)
}

var indicesCmd = &cobra.Command{
	Use:   "indices",
	Short: "List the indices known to pvopt",
	Run: func(cmd *cobra.Command, args []string) {
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Index", "Ticker"})
		table.SetBorder(false)
		for _, name := range data.IndexNames() {
			table.Append([]string{name, data.Indices[name]})
		}
		table.Render()
	},
}
