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

package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/penny-vault/pvopt/observability/opentelemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// NewTracer starts a span for every request; the span is available to handlers through c.UserContext()
func NewTracer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, span := otel.Tracer(opentelemetry.Name).Start(c.UserContext(), c.Method()+" "+c.Path())
		defer span.End()

		span.SetAttributes(opentelemetry.SpanAttributesFromFiber(c)...)
		c.SetUserContext(ctx)

		err := c.Next()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
}
