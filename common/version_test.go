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

package common_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pvopt/common"
)

var _ = Describe("Version", func() {
	DescribeTable("formats semantic versions",
		func(v common.Version, expected string) {
			Expect(v.String()).To(Equal(expected))
		},
		Entry("release", common.Version{Major: 1, Minor: 2, Patch: 3}, "1.2.3"),
		Entry("pre-release", common.Version{Major: 0, Minor: 3, Patch: 0, Suffix: "dev"}, "0.3.0-dev"),
	)

	It("names the program in the build string", func() {
		Expect(common.BuildVersionString(false)).To(HavePrefix("pvopt v"))
		Expect(common.BuildVersionString(false)).ToNot(ContainSubstring("Dependencies"))
	})
})
