// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/prefab/cmd/prefab/cli"
	"github.com/bureau-foundation/prefab/lib/version"
)

type versionParams struct {
	cli.JSONOutput
	Full bool `flag:"full" desc:"include the Go toolchain and platform"`
}

func versionCommand(stdout io.Writer) *cli.Command {
	var params versionParams

	return &cli.Command{
		Name:    "version",
		Summary: "Print build information",
		Usage:   "prefab version [--full] [--json]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("version", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("version takes no arguments")
			}
			if done, err := params.EmitJSON(stdout, version.Current()); done {
				return err
			}
			if params.Full {
				fmt.Fprintln(stdout, version.Full())
			} else {
				fmt.Fprintln(stdout, version.Info())
			}
			return nil
		},
	}
}
