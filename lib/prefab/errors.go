// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefab

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/prefab/lib/diffarchive"
)

var (
	// ErrLockedContainer is returned when the instance's level cannot
	// be edited. Nothing has been changed.
	ErrLockedContainer = errors.New("prefab: level is locked")

	// ErrCorruptArchive is returned when an instance's saved
	// differences cannot be read. Nothing has been changed.
	ErrCorruptArchive = diffarchive.ErrCorruptArchive

	// ErrMissingArchetype marks a map entry whose archetype no longer
	// exists in the template. The entry is dropped.
	ErrMissingArchetype = errors.New("prefab: archetype missing from template")

	// ErrUnmatchedConnector marks a script link that could not be
	// reconnected to the new sequence. The link is dropped.
	ErrUnmatchedConnector = errors.New("prefab: unmatched sequence connector")

	// ErrClassMismatch is the panic value when a live object's class is
	// not its archetype's class or a subclass of it.
	ErrClassMismatch = errors.New("prefab: live object class does not match archetype")

	// ErrNoTemplate is returned by operations on an instance whose
	// template has been cleared by DestroyPrefab.
	ErrNoTemplate = errors.New("prefab: instance has no template")
)

// DiagnosticKind classifies a per-item problem.
type DiagnosticKind uint8

const (
	MissingArchetype DiagnosticKind = iota
	UnmatchedConnector
	ReplayFailed
)

func (kind DiagnosticKind) String() string {
	switch kind {
	case MissingArchetype:
		return "missing_archetype"
	case UnmatchedConnector:
		return "unmatched_connector"
	case ReplayFailed:
		return "replay_failed"
	default:
		return fmt.Sprintf("unknown(%d)", kind)
	}
}

// Err returns the sentinel error for the kind, for errors.Is matching.
func (kind DiagnosticKind) Err() error {
	switch kind {
	case MissingArchetype:
		return ErrMissingArchetype
	case UnmatchedConnector:
		return ErrUnmatchedConnector
	default:
		return nil
	}
}

// Diagnostic is one recoverable problem found during an operation.
type Diagnostic struct {
	Kind    DiagnosticKind
	Subject string
	Message string
}

func (diagnostic Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", diagnostic.Kind, diagnostic.Subject, diagnostic.Message)
}

// Report collects what an operation did and what it had to skip.
type Report struct {
	Spawned   int
	Destroyed int
	Updated   int
	// Tombstoned counts members found destroyed in the level.
	Tombstoned  int
	Links       int
	Diagnostics []Diagnostic
}

// Count returns the number of diagnostics of kind.
func (report *Report) Count(kind DiagnosticKind) int {
	count := 0
	for _, diagnostic := range report.Diagnostics {
		if diagnostic.Kind == kind {
			count++
		}
	}
	return count
}

func (report *Report) add(logger *slog.Logger, metrics *Metrics, diagnostic Diagnostic) {
	report.Diagnostics = append(report.Diagnostics, diagnostic)
	metrics.diagnostic(diagnostic.Kind)
	logger.Warn("prefab diagnostic",
		"kind", diagnostic.Kind.String(),
		"subject", diagnostic.Subject,
		"message", diagnostic.Message,
	)
}
