// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/prefab/cmd/prefab/cli"
	"github.com/bureau-foundation/prefab/lib/object"
	"github.com/bureau-foundation/prefab/lib/prefab"
	"github.com/bureau-foundation/prefab/lib/prefabdef"
	"github.com/bureau-foundation/prefab/lib/scene"
)

type describeParams struct {
	cli.JSONOutput
	ConfigFlags
	Stored bool `flag:"stored" desc:"arguments name stored templates instead of definition files"`
}

// templateSummary is the JSON output for describe.
type templateSummary struct {
	Name        string             `json:"name"`
	Version     int                `json:"version"`
	Description string             `json:"description"`
	Archetypes  []archetypeSummary `json:"archetypes"`
	Sequence    *sequenceSummary   `json:"sequence,omitempty"`
}

type archetypeSummary struct {
	Name       string `json:"name"`
	Class      string `json:"class"`
	Kind       string `json:"kind"`
	Location   string `json:"location,omitempty"`
	Components int    `json:"components,omitempty"`
	References int    `json:"references,omitempty"`
}

type sequenceSummary struct {
	Name    string   `json:"name"`
	Nodes   int      `json:"nodes"`
	Inputs  []string `json:"inputs,omitempty"`
	Outputs []string `json:"outputs,omitempty"`
}

func describeCommand(stdout io.Writer) *cli.Command {
	var params describeParams

	return &cli.Command{
		Name:    "describe",
		Summary: "Summarize templates",
		Description: `Build templates from definition files (or load them from the store with
--stored) and summarize them: actor and script object counts, each
archetype with its class and template-space location, and the script
sequence's external connectors.`,
		Usage: "prefab describe [flags] <file|name>...",
		Examples: []cli.Example{
			{
				Description: "Describe a definition file",
				Command:     "prefab describe definitions/gatehouse.jsonc",
			},
			{
				Description: "Describe the stored Gatehouse template",
				Command:     "prefab describe --stored Gatehouse",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("describe", &params)
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("usage: prefab describe <file|name>...")
			}

			var templates []*prefab.Template
			if params.Stored {
				session, err := params.openSession("describe")
				if err != nil {
					return err
				}
				defer session.Close()
				for _, name := range args {
					template, _, err := session.store.Template(context.Background(), name, scene.Classes())
					if err != nil {
						return err
					}
					templates = append(templates, template)
				}
			} else {
				for _, path := range args {
					template, err := buildFile(path)
					if err != nil {
						return err
					}
					templates = append(templates, template)
				}
			}

			summaries := make([]templateSummary, 0, len(templates))
			for _, template := range templates {
				summaries = append(summaries, summarize(template))
			}
			if done, err := params.EmitJSON(stdout, summaries); done {
				return err
			}
			for i, summary := range summaries {
				if i > 0 {
					fmt.Fprintln(stdout)
				}
				printSummary(stdout, summary)
			}
			return nil
		},
	}
}

// buildFile reads, validates, and builds one definition file.
func buildFile(path string) (*prefab.Template, error) {
	definition, err := prefabdef.ReadFile(path)
	if err != nil {
		return nil, err
	}
	template, err := prefabdef.Build(definition, scene.Classes())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return template, nil
}

func summarize(template *prefab.Template) templateSummary {
	summary := templateSummary{
		Name:        template.Name(),
		Version:     template.Version(),
		Description: template.Describe(),
		Archetypes:  []archetypeSummary{},
	}
	for _, archetype := range template.Archetypes() {
		entry := archetypeSummary{
			Name:       archetype.Name(),
			Class:      archetype.Class().Name(),
			Kind:       archetype.Kind().String(),
			Components: len(archetype.Components()),
			References: len(archetype.References()),
		}
		if archetype.Kind() == object.KindActor {
			entry.Location = archetype.Transform().Location.String()
		}
		summary.Archetypes = append(summary.Archetypes, entry)
	}
	if script := template.Sequence(); script != nil {
		sequence := &sequenceSummary{Name: script.Name, Nodes: len(script.Children)}
		for _, input := range script.Inputs {
			sequence.Inputs = append(sequence.Inputs, input.Label)
		}
		for _, output := range script.Outputs {
			sequence.Outputs = append(sequence.Outputs, output.Label)
		}
		summary.Sequence = sequence
	}
	return summary
}

func printSummary(w io.Writer, summary templateSummary) {
	fmt.Fprintf(w, "%s (version %d): %s\n", summary.Name, summary.Version, summary.Description)
	if len(summary.Archetypes) > 0 {
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		fmt.Fprintf(tw, "  NAME\tCLASS\tLOCATION\tCOMPONENTS\tREFS\n")
		for _, archetype := range summary.Archetypes {
			location := archetype.Location
			if location == "" {
				location = "-"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\t%d\n",
				archetype.Name, archetype.Class, location, archetype.Components, archetype.References)
		}
		tw.Flush()
	}
	if summary.Sequence != nil {
		fmt.Fprintf(w, "  sequence %s: %d nodes, inputs %v, outputs %v\n",
			summary.Sequence.Name, summary.Sequence.Nodes, summary.Sequence.Inputs, summary.Sequence.Outputs)
	}
}
