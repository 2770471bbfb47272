// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"strings"
)

// ExitError signals a non-zero exit code for a command that has
// already written its own output, such as validate reporting issues.
// main exits with Code without printing the error.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// UsageExitCode is the exit status for malformed command lines.
const UsageExitCode = 2

// UsageError reports a command line that could not be dispatched or
// parsed.
type UsageError struct {
	// Command is the full command path, e.g. "prefab push".
	Command string
	Message string
	// Suggestion is a close match for a mistyped command or flag.
	Suggestion string
}

func (e *UsageError) Error() string {
	var builder strings.Builder
	builder.WriteString(e.Message)
	if e.Suggestion != "" {
		fmt.Fprintf(&builder, " (did you mean %s?)", e.Suggestion)
	}
	fmt.Fprintf(&builder, "\n\nRun '%s --help' for usage.", e.Command)
	return builder.String()
}
