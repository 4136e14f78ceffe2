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

package router

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/penny-vault/pvopt/handler"
	"github.com/penny-vault/pvopt/middleware"
)

// NewApp creates the fiber application serving the pvopt API; extra handlers run before request logging
func NewApp(h *handler.Handler, extra ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "pvopt",
		ErrorHandler: handler.ErrorHandler,
		JSONEncoder:  json.Marshal,
	})

	for _, mw := range extra {
		app.Use(mw)
	}

	app.Use(middleware.NewTracer())
	app.Use(middleware.NewLogger())

	SetupRoutes(app, h)
	return app
}
