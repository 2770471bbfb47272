// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sequence models the visual-script graph embedded in levels
// and prefab templates.
//
// A [Node] is an action, event, variable, or a nested sequence holding
// child nodes. Actions and sequences expose labeled input and output
// connectors; an output carries links to (node, input index) pairs.
// Variable connectors link a node to variable nodes. Connector labels
// are human-readable and are the only stable way to identify a
// connector across versions of a node, since indices shift when
// connectors are added or removed.
//
// [Capture] snapshots the links that attach a sequence node to the rest
// of its graph; [Connections.Restore] re-applies them to a replacement
// node by label, returning every link it could not place instead of
// guessing.
package sequence
