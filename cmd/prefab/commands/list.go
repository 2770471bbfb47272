// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/prefab/cmd/prefab/cli"
)

type listParams struct {
	cli.JSONOutput
	ConfigFlags
	Instances bool   `flag:"instances,i" desc:"list placed instances instead of templates"`
	Template  string `flag:"template,t" desc:"with --instances, only instances of this template"`
}

// templateEntry is the JSON output for list.
type templateEntry struct {
	Name        string    `json:"name"`
	Version     int       `json:"version"`
	Digest      string    `json:"digest"`
	Description string    `json:"description"`
	Size        int       `json:"size"`
	StoredSize  int       `json:"stored_size"`
	Compression string    `json:"compression"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// instanceEntry is the JSON output for list --instances.
type instanceEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Template  string    `json:"template"`
	Level     string    `json:"level"`
	Version   int       `json:"instance_version"`
	UpdatedAt time.Time `json:"updated_at"`
}

func listCommand(stdout io.Writer) *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List stored templates or instances",
		Usage:   "prefab list [flags]",
		Examples: []cli.Example{
			{
				Description: "List templates",
				Command:     "prefab list",
			},
			{
				Description: "List instances of the Gatehouse template",
				Command:     "prefab list --instances --template Gatehouse",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("usage: prefab list [flags]")
			}
			if params.Template != "" && !params.Instances {
				return fmt.Errorf("--template requires --instances")
			}

			session, err := params.openSession("list")
			if err != nil {
				return err
			}
			defer session.Close()

			if params.Instances {
				return listInstances(stdout, session, &params)
			}

			templates, err := session.store.ListTemplates(context.Background())
			if err != nil {
				return err
			}
			entries := make([]templateEntry, 0, len(templates))
			for _, info := range templates {
				entries = append(entries, templateEntry{
					Name:        info.Name,
					Version:     info.Version,
					Digest:      info.Digest.String(),
					Description: info.Description,
					Size:        info.Size,
					StoredSize:  info.StoredSize,
					Compression: info.Compression.String(),
					UpdatedAt:   info.UpdatedAt,
				})
			}
			if done, err := params.EmitJSON(stdout, entries); done {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(stdout, "no templates stored")
				return nil
			}

			tw := tabwriter.NewWriter(stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(tw, "NAME\tVERSION\tDIGEST\tSIZE\tCONTENTS\tUPDATED\n")
			for _, entry := range entries {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
					entry.Name, entry.Version, entry.Digest[:12],
					humanize.Bytes(uint64(entry.StoredSize)), entry.Description,
					entry.UpdatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func listInstances(stdout io.Writer, session *session, params *listParams) error {
	instances, err := session.store.ListInstances(context.Background(), params.Template)
	if err != nil {
		return err
	}
	entries := make([]instanceEntry, 0, len(instances))
	for _, info := range instances {
		entries = append(entries, instanceEntry(info))
	}
	if done, err := params.EmitJSON(stdout, entries); done {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "no instances stored")
		return nil
	}

	tw := tabwriter.NewWriter(stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "NAME\tTEMPLATE\tVERSION\tLEVEL\tID\n")
	for _, entry := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", entry.Name, entry.Template, entry.Version, entry.Level, entry.ID)
	}
	return tw.Flush()
}
