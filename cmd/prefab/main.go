// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/bureau-foundation/prefab/cmd/prefab/cli"
	"github.com/bureau-foundation/prefab/cmd/prefab/commands"
)

func main() {
	err := commands.Root(os.Stdout).Execute(os.Args[1:])
	if err == nil {
		return
	}

	var exit *cli.ExitError
	if errors.As(err, &exit) {
		os.Exit(exit.Code)
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)

	var usage *cli.UsageError
	if errors.As(err, &usage) {
		os.Exit(cli.UsageExitCode)
	}
	os.Exit(1)
}
