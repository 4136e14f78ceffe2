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
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/penny-vault/pvopt/common"
	"github.com/penny-vault/pvopt/data"
)

type PingResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"API is alive"`
	Version string `json:"version" example:"0.3.0-dev"`
	Time    string `json:"time" example:"2021-06-19T08:09:10.115924-05:00"`
}

func Ping(c *fiber.Ctx) error {
	return c.JSON(PingResponse{
		Status:  "success",
		Message: "API is alive",
		Version: common.CurrentVersion.String(),
		Time:    time.Now().Format(time.RFC3339Nano),
	})
}

type IndexResponse struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// ListIndices returns the index universes known to the data sources
func ListIndices(c *fiber.Ctx) error {
	names := data.IndexNames()
	resp := make([]IndexResponse, len(names))
	for idx, name := range names {
		resp[idx] = IndexResponse{
			Name:   name,
			Ticker: data.Indices[name],
		}
	}
	return c.JSON(resp)
}
