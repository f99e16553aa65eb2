// Copyright 2025 The TalkMap Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/talkmap/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
