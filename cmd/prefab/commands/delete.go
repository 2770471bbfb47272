// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/prefab/cmd/prefab/cli"
)

type deleteParams struct {
	ConfigFlags
	Instance bool `flag:"instance" desc:"arguments are instance IDs rather than template names"`
}

func deleteCommand(stdout io.Writer) *cli.Command {
	var params deleteParams

	return &cli.Command{
		Name:    "delete",
		Summary: "Remove stored templates or instances",
		Description: `Remove templates from the store. Deleting a template also deletes the
stored state of every instance placed from it. With --instance, the
arguments are instance IDs and only those instances are removed.`,
		Usage: "prefab delete [flags] <name>...",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("delete", &params)
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("usage: prefab delete [flags] <name>...")
			}

			session, err := params.openSession("delete")
			if err != nil {
				return err
			}
			defer session.Close()

			for _, name := range args {
				if params.Instance {
					err = session.store.DeleteInstanceState(context.Background(), name)
				} else {
					err = session.store.DeleteTemplate(context.Background(), name)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "deleted %s\n", name)
			}
			return nil
		},
	}
}
