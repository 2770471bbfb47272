// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/prefab/cmd/prefab/cli"
	"github.com/bureau-foundation/prefab/lib/prefab"
)

type pushParams struct {
	cli.JSONOutput
	ConfigFlags
	DryRun bool `flag:"dry-run" desc:"build and validate without writing to the store"`
}

// pushResult is the JSON output for push.
type pushResult struct {
	Name        string `json:"name"`
	File        string `json:"file"`
	Version     int    `json:"version"`
	Changed     bool   `json:"changed"`
	Digest      string `json:"digest,omitempty"`
	Description string `json:"description"`
	Size        int    `json:"size,omitempty"`
	StoredSize  int    `json:"stored_size,omitempty"`
	Compression string `json:"compression,omitempty"`
}

func pushCommand(stdout io.Writer) *cli.Command {
	var params pushParams

	return &cli.Command{
		Name:    "push",
		Summary: "Store templates built from definition files",
		Description: `Build each definition file into a template and write it to the store.

A template whose content is unchanged since the last push keeps its
version and is not rewritten. Any change bumps the version, and
instances placed from the older version pick the change up the next
time they are synchronized.

Every file is built before anything is written, so one bad file leaves
the store untouched.`,
		Usage: "prefab push [flags] <file>...",
		Examples: []cli.Example{
			{
				Description: "Push a template",
				Command:     "prefab push definitions/gatehouse.jsonc",
			},
			{
				Description: "Check that every definition builds",
				Command:     "prefab push --dry-run definitions/*.jsonc",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("push", &params)
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("usage: prefab push <file>...")
			}

			templates := make([]*prefab.Template, 0, len(args))
			seen := make(map[string]string)
			for _, path := range args {
				template, err := buildFile(path)
				if err != nil {
					return err
				}
				if previous, ok := seen[template.Name()]; ok {
					return fmt.Errorf("%s and %s both define template %q", previous, path, template.Name())
				}
				seen[template.Name()] = path
				templates = append(templates, template)
			}

			results := make([]pushResult, 0, len(templates))
			if params.DryRun {
				for i, template := range templates {
					results = append(results, pushResult{
						Name:        template.Name(),
						File:        args[i],
						Version:     template.Version(),
						Description: template.Describe(),
					})
				}
			} else {
				session, err := params.openSession("push")
				if err != nil {
					return err
				}
				defer session.Close()

				for i, template := range templates {
					info, err := session.store.PutTemplate(context.Background(), template)
					if err != nil {
						return err
					}
					results = append(results, pushResult{
						Name:        info.Name,
						File:        args[i],
						Version:     info.Version,
						Changed:     info.Changed,
						Digest:      info.Digest.String(),
						Description: info.Description,
						Size:        info.Size,
						StoredSize:  info.StoredSize,
						Compression: info.Compression.String(),
					})
				}
			}

			if done, err := params.EmitJSON(stdout, results); done {
				return err
			}
			for _, result := range results {
				switch {
				case params.DryRun:
					fmt.Fprintf(stdout, "%s: %s (dry run, not stored)\n", result.Name, result.Description)
				case result.Changed:
					fmt.Fprintf(stdout, "%s: stored version %d, %s, %s (%s as %s)\n",
						result.Name, result.Version, result.Description, result.Digest[:12],
						humanize.Bytes(uint64(result.Size)), humanize.Bytes(uint64(result.StoredSize)))
				default:
					fmt.Fprintf(stdout, "%s: unchanged at version %d\n", result.Name, result.Version)
				}
			}
			return nil
		},
	}
}
