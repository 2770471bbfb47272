// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"io"

	"github.com/bureau-foundation/prefab/cmd/prefab/cli"
)

// Root returns the prefab command tree. Command results are written to
// stdout; logs and help go to stderr.
func Root(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "prefab",
		Summary: "Prefab template and instance tools",
		Description: `Build prefab templates from definition files, keep them in a versioned
store, and place instances of them.

Store-backed commands read their configuration from the file named by
PREFAB_CONFIG or by --config. validate and describe work on definition
files alone.`,
		Subcommands: []*cli.Command{
			validateCommand(stdout),
			describeCommand(stdout),
			pushCommand(stdout),
			listCommand(stdout),
			showCommand(stdout),
			placeCommand(stdout),
			deleteCommand(stdout),
			versionCommand(stdout),
		},
		Examples: []cli.Example{
			{
				Description: "Check a definition, store it, and place it",
				Command: "prefab validate gatehouse.jsonc && prefab push gatehouse.jsonc && " +
					"prefab place --at 1000,500,0 Gatehouse",
			},
		},
	}
}
