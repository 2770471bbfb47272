// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefab

import (
	"fmt"

	"github.com/bureau-foundation/prefab/lib/rewrite"
	"github.com/bureau-foundation/prefab/lib/sequence"
)

// Resync replaces old with replacement under parent and reconnects the
// links that attached old to the rest of the graph, matching connectors
// by label. The replacement inherits old's name and editor position.
// Either node may be nil: with no old node nothing is reconnected, and
// with no replacement every captured link is reported unresolved.
func Resync(parent, old, replacement *sequence.Node) (sequence.ResyncResult, error) {
	if replacement != nil {
		if parent == nil {
			return sequence.ResyncResult{}, fmt.Errorf("prefab: resyncing %s: no parent sequence", replacement.Name)
		}
		if replacement.Parent() != nil {
			return sequence.ResyncResult{}, fmt.Errorf("prefab: resyncing %s: replacement already belongs to %s", replacement.Name, replacement.Parent().Name)
		}
	}

	var connections sequence.Connections
	if old != nil {
		connections = sequence.Capture(old)
		if replacement != nil {
			replacement.Name = old.Name
			replacement.X, replacement.Y = old.X, old.Y
		}
		if oldParent := old.Parent(); oldParent != nil {
			oldParent.RemoveObject(old)
		}
	}
	if replacement == nil {
		return dropAll(connections), nil
	}
	if err := parent.AddObject(replacement); err != nil {
		return sequence.ResyncResult{}, fmt.Errorf("prefab: resyncing %s: %w", replacement.Name, err)
	}
	return connections.Restore(replacement), nil
}

func dropAll(connections sequence.Connections) sequence.ResyncResult {
	var result sequence.ResyncResult
	for _, incoming := range connections.Incoming {
		result.Unresolved = append(result.Unresolved, sequence.Unresolved{
			Direction: sequence.Incoming, Label: incoming.InputLabel, Peer: incoming.Source, Reason: sequence.Missing,
		})
	}
	for _, output := range connections.Outputs {
		for _, link := range output.Links {
			result.Unresolved = append(result.Unresolved, sequence.Unresolved{
				Direction: sequence.Outgoing, Label: output.Label, Peer: link.Target, Reason: sequence.Missing,
			})
		}
	}
	for _, variable := range connections.Variables {
		for _, target := range variable.Linked {
			result.Unresolved = append(result.Unresolved, sequence.Unresolved{
				Direction: sequence.Variable, Label: variable.Label, Peer: target, Reason: sequence.Missing,
			})
		}
	}
	return result
}

// resyncSequence replaces the instance's sequence with a fresh copy of
// the template's, with object references pointing at live members.
func (instance *Instance) resyncSequence(report *Report) error {
	templateSequence := instance.template.Sequence()
	if templateSequence == nil && instance.sequence == nil {
		return nil
	}

	var parent, replacement *sequence.Node
	if templateSequence != nil {
		var err error
		parent, err = instance.host.PrefabSequence(instance.level)
		if err != nil {
			return fmt.Errorf("instancing sequence for %s: %w", instance.name, err)
		}
		replacement = templateSequence.Clone()
		replacement.Name = instance.name
		rewrite.Rewrite(replacement, instance.members.Mapping(), false)
		replacement.RenameEvents()
	}

	result, err := Resync(parent, instance.sequence, replacement)
	if err != nil {
		return err
	}
	instance.sequence = replacement
	if replacement == nil {
		instance.host.ReleasePrefabSequence(instance.level)
	}
	report.Links += result.Restored
	for _, unresolved := range result.Unresolved {
		report.add(instance.logger, instance.metrics, Diagnostic{
			Kind:    UnmatchedConnector,
			Subject: unresolved.Peer.String(),
			Message: unresolved.String(),
		})
	}
	return nil
}
