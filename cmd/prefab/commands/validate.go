// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/prefab/cmd/prefab/cli"
	"github.com/bureau-foundation/prefab/lib/prefabdef"
	"github.com/bureau-foundation/prefab/lib/scene"
)

type validateParams struct {
	cli.JSONOutput
}

// validationResult is the JSON output for validate.
type validationResult struct {
	File   string   `json:"file"`
	Name   string   `json:"name,omitempty"`
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}

func validateCommand(stdout io.Writer) *cli.Command {
	var params validateParams

	return &cli.Command{
		Name:    "validate",
		Summary: "Check template definition files",
		Description: `Parse and validate template definition files without touching the
store. Checks that every class exists, components are component
classes, property values are well formed, references name archetypes
of the same template, and sequence links and bindings name real nodes
and connectors.

Exits with status 1 when any file has issues.`,
		Usage: "prefab validate [flags] <file>...",
		Examples: []cli.Example{
			{
				Description: "Validate every definition in a directory",
				Command:     "prefab validate definitions/*.jsonc",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("validate", &params)
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("usage: prefab validate <file>...")
			}

			results := make([]validationResult, 0, len(args))
			failed := false
			for _, path := range args {
				result := validateFile(path)
				failed = failed || !result.Valid
				results = append(results, result)
			}

			if done, err := params.EmitJSON(stdout, results); done {
				if err == nil && failed {
					err = &cli.ExitError{Code: 1}
				}
				return err
			}

			for _, result := range results {
				if result.Valid {
					fmt.Fprintf(stdout, "%s: %s ok\n", result.File, result.Name)
					continue
				}
				fmt.Fprintf(stdout, "%s: %d issue(s)\n", result.File, len(result.Issues))
				for _, issue := range result.Issues {
					fmt.Fprintf(stdout, "  - %s\n", issue)
				}
			}
			if failed {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

func validateFile(path string) validationResult {
	result := validationResult{File: path}
	definition, err := prefabdef.ReadFile(path)
	if err != nil {
		result.Issues = []string{err.Error()}
		return result
	}
	result.Name = definition.Name
	result.Issues = prefabdef.Validate(definition, scene.Classes())
	result.Valid = len(result.Issues) == 0
	return result
}
