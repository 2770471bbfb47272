// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sequence

import "fmt"

// Direction says which side of a node a captured link was on.
type Direction uint8

const (
	// Incoming links run from another node's output into one of the
	// node's inputs.
	Incoming Direction = iota

	// Outgoing links run from one of the node's outputs.
	Outgoing

	// Variable bindings run from one of the node's variable connectors.
	Variable
)

func (direction Direction) String() string {
	switch direction {
	case Incoming:
		return "incoming"
	case Outgoing:
		return "outgoing"
	case Variable:
		return "variable"
	default:
		return fmt.Sprintf("unknown(%d)", direction)
	}
}

// IncomingLink is a link into the captured node, keyed by the label of
// the input it targeted rather than its index.
type IncomingLink struct {
	Source      *Node
	OutputIndex int
	InputLabel  string
}

// Connections is a snapshot of the links attaching a node to the rest
// of its graph.
type Connections struct {
	Incoming  []IncomingLink
	Outputs   []Output
	Variables []VariableLink
}

// Empty reports whether nothing was captured.
func (connections Connections) Empty() bool {
	return len(connections.Incoming) == 0 && len(connections.Outputs) == 0 && len(connections.Variables) == 0
}

// Capture snapshots node's connections. Incoming links are collected
// from every node of node's graph outside node's own subtree. Output
// links and variable bindings are copied by value; those pointing back
// into node's subtree are skipped since the subtree is about to be
// replaced.
func Capture(node *Node) Connections {
	var connections Connections
	node.Root().Walk(func(other *Node) bool {
		if node.Contains(other) {
			return false
		}
		for outputIndex, output := range other.Outputs {
			for _, link := range output.Links {
				if link.Target != node || link.InputIndex < 0 || link.InputIndex >= len(node.Inputs) {
					continue
				}
				connections.Incoming = append(connections.Incoming, IncomingLink{
					Source:      other,
					OutputIndex: outputIndex,
					InputLabel:  node.Inputs[link.InputIndex].Label,
				})
			}
		}
		return true
	})
	for _, output := range node.Outputs {
		snapshot := Output{Label: output.Label}
		for _, link := range output.Links {
			if !node.Contains(link.Target) {
				snapshot.Links = append(snapshot.Links, link)
			}
		}
		if len(snapshot.Links) > 0 {
			connections.Outputs = append(connections.Outputs, snapshot)
		}
	}
	for _, variable := range node.Variables {
		snapshot := VariableLink{Label: variable.Label}
		for _, target := range variable.Linked {
			if !node.Contains(target) {
				snapshot.Linked = append(snapshot.Linked, target)
			}
		}
		if len(snapshot.Linked) > 0 {
			connections.Variables = append(connections.Variables, snapshot)
		}
	}
	return connections
}

// Reason says why a captured link could not be restored.
type Reason uint8

const (
	// Missing means the replacement has no connector with the label.
	Missing Reason = iota

	// Ambiguous means the replacement has several connectors with the
	// label and none was chosen.
	Ambiguous
)

func (reason Reason) String() string {
	switch reason {
	case Missing:
		return "missing"
	case Ambiguous:
		return "ambiguous"
	default:
		return fmt.Sprintf("unknown(%d)", reason)
	}
}

// Unresolved is a captured link that Restore dropped.
type Unresolved struct {
	Direction Direction
	Label     string
	// Peer is the node at the other end of the dropped link.
	Peer   *Node
	Reason Reason
}

func (unresolved Unresolved) String() string {
	return fmt.Sprintf("%s link %q to %s: %s connector", unresolved.Direction, unresolved.Label, unresolved.Peer, unresolved.Reason)
}

// ResyncResult reports what Restore did.
type ResyncResult struct {
	Restored   int
	Unresolved []Unresolved
}

// Restore re-applies the captured connections to replacement, matching
// connectors by label. A label must match exactly one connector on the
// replacement; otherwise the link is returned as unresolved. Links that
// already exist are not duplicated.
func (connections Connections) Restore(replacement *Node) ResyncResult {
	var result ResyncResult
	unresolved := func(direction Direction, label string, peer *Node, matches int) {
		reason := Missing
		if matches > 1 {
			reason = Ambiguous
		}
		result.Unresolved = append(result.Unresolved, Unresolved{Direction: direction, Label: label, Peer: peer, Reason: reason})
	}

	for _, output := range connections.Outputs {
		matches := replacement.OutputsLabeled(output.Label)
		if len(matches) != 1 {
			for _, link := range output.Links {
				unresolved(Outgoing, output.Label, link.Target, len(matches))
			}
			continue
		}
		for _, link := range output.Links {
			if replacement.addLinkUnchecked(matches[0], link) {
				result.Restored++
			}
		}
	}

	for _, variable := range connections.Variables {
		matches := replacement.VariablesLabeled(variable.Label)
		if len(matches) != 1 {
			for _, target := range variable.Linked {
				unresolved(Variable, variable.Label, target, len(matches))
			}
			continue
		}
		for _, target := range variable.Linked {
			if replacement.BindVariable(matches[0], target) {
				result.Restored++
			}
		}
	}

	for _, incoming := range connections.Incoming {
		matches := replacement.InputsLabeled(incoming.InputLabel)
		if len(matches) != 1 {
			unresolved(Incoming, incoming.InputLabel, incoming.Source, len(matches))
			continue
		}
		if incoming.Source.AddLink(incoming.OutputIndex, replacement, matches[0]) {
			result.Restored++
		}
	}
	return result
}

// addLinkUnchecked appends link to output index unless it is already
// there. The link's input index refers to a node outside the
// replacement and is copied as is.
func (node *Node) addLinkUnchecked(index int, link Link) bool {
	for _, existing := range node.Outputs[index].Links {
		if existing == link {
			return false
		}
	}
	node.Outputs[index].Links = append(node.Outputs[index].Links, link)
	return true
}
