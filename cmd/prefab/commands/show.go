// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/prefab/cmd/prefab/cli"
	"github.com/bureau-foundation/prefab/lib/codec"
	"github.com/bureau-foundation/prefab/lib/prefab"
	"github.com/bureau-foundation/prefab/lib/scene"
)

type showParams struct {
	ConfigFlags
	JSON       bool `flag:"json" desc:"print the template document as JSON"`
	Diagnostic bool `flag:"diagnostic" desc:"print the stored CBOR body in diagnostic notation"`
	Instance   bool `flag:"instance" desc:"the argument is an instance ID; print its stored state"`
}

func showCommand(stdout io.Writer) *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show a stored template or instance",
		Description: `Print a stored template. The default output is a header with the
version, content digest, and storage sizes followed by the archetype
summary. --json prints the template document itself, in the same
shape the store encodes as CBOR; --diagnostic prints the CBOR body in
RFC 8949 diagnostic notation.

With --instance, the argument is an instance ID and its persisted
state (members, saved differences) is printed as JSON.`,
		Usage: "prefab show [flags] <name>",
		Examples: []cli.Example{
			{
				Description: "Show the Gatehouse template",
				Command:     "prefab show Gatehouse",
			},
			{
				Description: "Inspect the encoded body",
				Command:     "prefab show --diagnostic Gatehouse",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: prefab show [flags] <name>")
			}
			if params.JSON && params.Diagnostic {
				return fmt.Errorf("--json and --diagnostic are mutually exclusive")
			}

			session, err := params.openSession("show")
			if err != nil {
				return err
			}
			defer session.Close()
			ctx := context.Background()

			if params.Instance {
				state, err := session.store.InstanceState(ctx, args[0])
				if err != nil {
					return err
				}
				return cli.WriteJSON(stdout, state)
			}

			body, info, err := session.store.TemplateBody(ctx, args[0])
			if err != nil {
				return err
			}
			if params.Diagnostic {
				notation, err := codec.Diagnose(body)
				if err != nil {
					return err
				}
				fmt.Fprintln(stdout, notation)
				return nil
			}

			var document prefab.TemplateDocument
			if err := codec.Unmarshal(body, &document); err != nil {
				return fmt.Errorf("decode template %s: %w", args[0], err)
			}
			if params.JSON {
				return cli.WriteJSON(stdout, document)
			}

			template, _, err := prefab.DecodeTemplate(document, scene.Classes())
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "digest:      %s\n", info.Digest)
			fmt.Fprintf(stdout, "stored:      %s as %s (%s)\n",
				humanize.Bytes(uint64(info.Size)), humanize.Bytes(uint64(info.StoredSize)), info.Compression)
			fmt.Fprintf(stdout, "created:     %s\n", info.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(stdout, "updated:     %s\n\n", info.UpdatedAt.Format(time.RFC3339))
			printSummary(stdout, summarize(template))
			return nil
		},
	}
}
