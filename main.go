// Copyright 2025 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/teamicebreaker/locator/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
